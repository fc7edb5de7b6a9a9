// internal/workers/analysis/score-vulnerability/models.go
package scorevulnerability

import "disaster-eye-workers/internal/models"

// Input selects the rectangular region and the analysis flavor. AnalysisType
// accepts "flood", "building" or "comprehensive" (the default); the keyword
// classifier labels flood_analysis and building_damage are understood too.
type Input struct {
	Bounds       models.Bounds `json:"bounds"`
	AnalysisType string        `json:"analysis_type,omitempty"`
}

// Output is the composed regional analysis.
type Output struct {
	Result models.RegionalAnalysis `json:"regional_analysis"`
}

// Metrics collects the observable inputs to the composite score. Zero values
// stand in for metrics the selected analyses did not produce.
type Metrics struct {
	FloodPercentage   float64
	AverageElevation  float64
	BuiltUpPercentage float64
	DamagePercentage  float64
}
