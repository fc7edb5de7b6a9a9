// internal/report/report.go
// Package report renders the markdown analysis summaries returned to chat and
// API clients.
package report

import (
	"fmt"
	"strings"

	"disaster-eye-workers/internal/models"
)

// ClassifyDepth maps a zonal mean flood depth index (0-1) to a risk tier.
// Both cutoffs are exclusive: a depth of exactly 0.5 is Moderate and exactly
// 0.2 is Low.
func ClassifyDepth(depthIndex float64) models.RiskLevel {
	switch {
	case depthIndex > 0.5:
		return models.RiskHigh
	case depthIndex > 0.2:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// Recommendation returns the construction guidance line for a depth risk tier.
func Recommendation(risk models.RiskLevel) string {
	switch risk {
	case models.RiskHigh:
		return "This area has high flood risk. Avoid construction and consider flood mitigation measures."
	case models.RiskModerate:
		return "This area has moderate flood risk. Consider flood-resistant construction."
	default:
		return "This area has low flood risk, but stay informed about local conditions."
	}
}

// Assessment renders the flood hazard summary for one location. The risk tier
// is derived from the depth index.
func Assessment(locationName string, lat, lng, depthIndex float64) string {
	if locationName == "" {
		locationName = models.DefaultLocationLabel
	}
	risk := ClassifyDepth(depthIndex)

	var b strings.Builder
	fmt.Fprintf(&b, "## Flood Hazard Assessment for %s\n", locationName)
	fmt.Fprintf(&b, "**Coordinates:** %.4f, %.4f\n", lat, lng)
	fmt.Fprintf(&b, "**Flood Risk Level:** %s\n", risk)
	fmt.Fprintf(&b, "**Flood Depth Index (0-1):** %.2f\n", depthIndex)
	b.WriteString("\n### Key Findings:\n")
	b.WriteString("- Blue areas indicate potential flood hazard zones (0-1m depth)\n")
	b.WriteString("- Darker blue shows higher flood risk areas\n")
	b.WriteString("- Elevation data provides additional context\n")
	b.WriteString("\n### Recommendations:\n")
	b.WriteString(Recommendation(risk))
	b.WriteString("\n- Monitor local flood warnings and advisories\n")
	b.WriteString("- Consult local authorities for detailed flood risk information\n")
	b.WriteString("- Consider flood insurance if available in your area")
	return b.String()
}

// ParseAssessment recovers the risk tier and depth index from a rendered
// assessment summary. Consumers that only hold the summary text (the HTTP
// archive path) use this instead of re-running the analysis. Degraded and
// placeholder summaries yield an empty tier and a nil depth.
func ParseAssessment(summary string) (models.RiskLevel, *float64) {
	var risk models.RiskLevel
	var depth *float64

	for _, line := range strings.Split(summary, "\n") {
		if rest, ok := strings.CutPrefix(line, "**Flood Risk Level:** "); ok {
			risk = models.RiskLevel(strings.TrimSpace(rest))
			continue
		}
		if rest, ok := strings.CutPrefix(line, "**Flood Depth Index (0-1):** "); ok {
			var v float64
			if _, err := fmt.Sscanf(strings.TrimSpace(rest), "%f", &v); err == nil {
				depth = &v
			}
		}
	}
	return risk, depth
}

// AnalysisData collects the inputs for a combined location report. Nil
// sections are left out of the output.
type AnalysisData struct {
	Flood       *models.SARFloodAnalysis
	Building    *models.BuildingAnalysis
	Coordinates *models.Coordinates
	Timestamp   string
}

// Empty reports whether no field was populated at all.
func (d AnalysisData) Empty() bool {
	return d.Flood == nil && d.Building == nil && d.Coordinates == nil && d.Timestamp == ""
}

// Combined renders the multi-section markdown for a full location analysis.
// Placeholder text is returned when there is nothing to report yet.
func Combined(data AnalysisData) string {
	if data.Empty() {
		return "No analysis data available."
	}

	var sections []string

	if data.Flood != nil {
		risk := data.Flood.RiskLevel
		if risk == "" {
			risk = "Unknown"
		}
		sections = append(sections, fmt.Sprintf(
			"**Flood Risk Assessment:**\n- Current flood coverage: %.1f%%\n- Average elevation: %.1fm\n- Risk level: %s",
			data.Flood.FloodPercentage, data.Flood.AverageElevation, risk))
	}

	if data.Building != nil {
		sections = append(sections, fmt.Sprintf(
			"**Building Damage Assessment:**\n- Estimated buildings: %d\n- Potentially damaged: %d\n- Damage rate: %.1f%%",
			data.Building.TotalBuildings, data.Building.DamagedBuildings, data.Building.DamagePercentage))
	}

	if data.Coordinates != nil {
		performed := data.Timestamp
		if performed == "" {
			performed = "Recently"
		}
		sections = append(sections, fmt.Sprintf(
			"**Analysis Location:**\n- Coordinates: %.4f, %.4f\n- Analysis performed: %s",
			data.Coordinates.Lat, data.Coordinates.Lng, performed))
	}

	if len(sections) == 0 {
		return "Analysis report is being generated. Please check back shortly."
	}
	return strings.Join(sections, "\n\n")
}
