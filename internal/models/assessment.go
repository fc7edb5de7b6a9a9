// internal/models/assessment.go
package models

import "fmt"

// RiskLevel tiers produced by the flood-depth classification.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskLow      RiskLevel = "Low"
	// RiskMedium is the middle tier of the SAR-based analysis, which predates
	// the depth-index tiers and kept its own label.
	RiskMedium RiskLevel = "Medium"
)

// AssessmentCacheKey addresses one assessment by its coordinates, rounded
// to four decimals (roughly 11 m) so nearby repeat queries share an entry.
// The archiver writes under this key; the producer reads it to reuse a
// recent depth index.
func AssessmentCacheKey(lat, lng float64) string {
	return fmt.Sprintf("assess:flood:%.4f,%.4f", lat, lng)
}

// FloodAssessment is the persisted outcome of one flood-vulnerability run.
type FloodAssessment struct {
	ID         string    `json:"id"`
	Location   string    `json:"location"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	DepthIndex float64   `json:"depthIndex"` // zonal mean flood depth, 0-1
	Summary    string    `json:"summary"`
	Analysis   string    `json:"analysis,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

// SARFloodAnalysis is the radar-based flood estimate over a buffered region.
type SARFloodAnalysis struct {
	FloodPercentage  float64     `json:"flood_percentage"`
	AverageElevation float64     `json:"average_elevation"`
	RiskLevel        RiskLevel   `json:"risk_level"`
	Coordinates      Coordinates `json:"coordinates"`
	AnalysisRadius   float64     `json:"analysis_radius"`
}

// BuildingAnalysis estimates built-up area and potential flood damage.
type BuildingAnalysis struct {
	TotalBuildings    int         `json:"total_buildings"`
	DamagedBuildings  int         `json:"damaged_buildings"`
	BuiltUpPercentage float64     `json:"built_up_percentage"`
	DamagePercentage  float64     `json:"damage_percentage"`
	Coordinates       Coordinates `json:"coordinates"`
}

// Bounds is a rectangular analysis region.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Center returns the rectangle's center point.
func (b Bounds) Center() Coordinates {
	return Coordinates{
		Lat: (b.North + b.South) / 2,
		Lng: (b.East + b.West) / 2,
	}
}

// RegionalAnalysis combines per-region metrics with a composite score.
type RegionalAnalysis struct {
	Bounds       Bounds            `json:"bounds"`
	AnalysisType string            `json:"analysis_type"`
	Score        float64           `json:"score"`
	Tier         RiskLevel         `json:"tier"`
	Flood        *SARFloodAnalysis `json:"flood_analysis,omitempty"`
	Building     *BuildingAnalysis `json:"building_analysis,omitempty"`
}
