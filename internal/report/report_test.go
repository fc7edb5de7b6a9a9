// internal/report/report_test.go
package report

import (
	"testing"

	"disaster-eye-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth float64
		want  models.RiskLevel
	}{
		{"deep water", 0.8, models.RiskHigh},
		{"just above high cutoff", 0.51, models.RiskHigh},
		{"exactly the high cutoff", 0.5, models.RiskModerate},
		{"just above moderate cutoff", 0.21, models.RiskModerate},
		{"exactly the moderate cutoff", 0.2, models.RiskLow},
		{"dry", 0.0, models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDepth(tt.depth))
		})
	}
}

func TestRecommendation(t *testing.T) {
	assert.Contains(t, Recommendation(models.RiskHigh), "Avoid construction")
	assert.Contains(t, Recommendation(models.RiskModerate), "flood-resistant construction")
	assert.Contains(t, Recommendation(models.RiskLow), "stay informed")
}

func TestAssessment(t *testing.T) {
	got := Assessment("Chennai", 13.0827, 80.2707, 0.62)

	want := `## Flood Hazard Assessment for Chennai
**Coordinates:** 13.0827, 80.2707
**Flood Risk Level:** High
**Flood Depth Index (0-1):** 0.62

### Key Findings:
- Blue areas indicate potential flood hazard zones (0-1m depth)
- Darker blue shows higher flood risk areas
- Elevation data provides additional context

### Recommendations:
This area has high flood risk. Avoid construction and consider flood mitigation measures.
- Monitor local flood warnings and advisories
- Consult local authorities for detailed flood risk information
- Consider flood insurance if available in your area`
	assert.Equal(t, want, got)
}

func TestAssessment_DefaultLocationLabel(t *testing.T) {
	got := Assessment("", 13.0827, 80.2707, 0.1)
	assert.Contains(t, got, "## Flood Hazard Assessment for Selected Location")
	assert.Contains(t, got, "**Flood Risk Level:** Low")
}

func TestParseAssessment(t *testing.T) {
	risk, depth := ParseAssessment(Assessment("Chennai", 13.0827, 80.2707, 0.62))
	assert.Equal(t, models.RiskHigh, risk)
	if assert.NotNil(t, depth) {
		assert.InDelta(t, 0.62, *depth, 1e-9)
	}
}

func TestParseAssessment_RoundTripsEveryTier(t *testing.T) {
	for _, d := range []float64{0.05, 0.3, 0.9} {
		risk, depth := ParseAssessment(Assessment("X", 1, 2, d))
		assert.Equal(t, ClassifyDepth(d), risk)
		if assert.NotNil(t, depth) {
			assert.InDelta(t, d, *depth, 0.005)
		}
	}
}

func TestParseAssessment_DegradedSummary(t *testing.T) {
	risk, depth := ParseAssessment("Basic map for (13, 80). Error in flood analysis: boom")
	assert.Empty(t, risk)
	assert.Nil(t, depth)
}

func TestCombined_FullData(t *testing.T) {
	got := Combined(AnalysisData{
		Flood: &models.SARFloodAnalysis{
			FloodPercentage:  45.12,
			AverageElevation: 5.23,
			RiskLevel:        models.RiskHigh,
		},
		Building: &models.BuildingAnalysis{
			TotalBuildings:   500,
			DamagedBuildings: 175,
			DamagePercentage: 35.0,
		},
		Coordinates: &models.Coordinates{Lat: 13.0827, Lng: 80.2707},
		Timestamp:   "2024-06-01T12:00:00Z",
	})

	assert.Contains(t, got, "**Flood Risk Assessment:**")
	assert.Contains(t, got, "- Current flood coverage: 45.1%")
	assert.Contains(t, got, "- Average elevation: 5.2m")
	assert.Contains(t, got, "- Risk level: High")
	assert.Contains(t, got, "**Building Damage Assessment:**")
	assert.Contains(t, got, "- Estimated buildings: 500")
	assert.Contains(t, got, "- Potentially damaged: 175")
	assert.Contains(t, got, "- Damage rate: 35.0%")
	assert.Contains(t, got, "**Analysis Location:**")
	assert.Contains(t, got, "- Coordinates: 13.0827, 80.2707")
	assert.Contains(t, got, "- Analysis performed: 2024-06-01T12:00:00Z")
}

func TestCombined_FloodOnly(t *testing.T) {
	got := Combined(AnalysisData{
		Flood: &models.SARFloodAnalysis{FloodPercentage: 12.3, AverageElevation: 40.0, RiskLevel: models.RiskMedium},
	})

	assert.Contains(t, got, "**Flood Risk Assessment:**")
	assert.NotContains(t, got, "**Building Damage Assessment:**")
	assert.NotContains(t, got, "**Analysis Location:**")
}

func TestCombined_UnknownRiskLevel(t *testing.T) {
	got := Combined(AnalysisData{Flood: &models.SARFloodAnalysis{}})
	assert.Contains(t, got, "- Risk level: Unknown")
}

func TestCombined_MissingTimestamp(t *testing.T) {
	got := Combined(AnalysisData{Coordinates: &models.Coordinates{Lat: 1, Lng: 2}})
	assert.Contains(t, got, "- Analysis performed: Recently")
}

func TestCombined_NoData(t *testing.T) {
	assert.Equal(t, "No analysis data available.", Combined(AnalysisData{}))
}

func TestCombined_NoSections(t *testing.T) {
	got := Combined(AnalysisData{Timestamp: "2024-06-01T12:00:00Z"})
	assert.Equal(t, "Analysis report is being generated. Please check back shortly.", got)
}
