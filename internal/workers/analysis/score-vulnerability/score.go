// internal/workers/analysis/score-vulnerability/score.go
package scorevulnerability

import (
	"math"

	"disaster-eye-workers/internal/models"
)

// Composite score weights. Flood exposure dominates, low-lying terrain and
// built-up density follow, damage estimate refines.
const (
	weightFlood     = 0.40
	weightElevation = 0.25
	weightBuiltUp   = 0.20
	weightDamage    = 0.15
)

// Tier cutoffs, inclusive.
const (
	tierHighMin   = 70.0
	tierMediumMin = 40.0
)

// Score composes the 0-100 vulnerability score from the available metrics.
// Elevation enters inverted: terrain at sea level contributes the full
// elevation weight, terrain at or above 100 m contributes nothing.
func Score(m Metrics) float64 {
	invElevation := clamp(100-m.AverageElevation, 0, 100)

	score := weightFlood*clamp(m.FloodPercentage, 0, 100) +
		weightElevation*invElevation +
		weightBuiltUp*clamp(m.BuiltUpPercentage, 0, 100) +
		weightDamage*clamp(m.DamagePercentage, 0, 100)

	return math.Round(score*10) / 10
}

// Tier maps a composite score to its risk label.
func Tier(score float64) models.RiskLevel {
	switch {
	case score >= tierHighMin:
		return models.RiskHigh
	case score >= tierMediumMin:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
