// internal/workers/analysis/query-history/models.go
package queryhistory

import "disaster-eye-workers/internal/models"

// Input selects archived assessments near a coordinate. Query, when set,
// additionally runs a text search over the search index.
type Input struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Limit int     `json:"limit,omitempty"`
	Query string  `json:"query,omitempty"`
}

// Output is the history slice, newest first. SearchDegraded is true when a
// text search was requested but the search backend failed.
type Output struct {
	Assessments    []models.FloodAssessment `json:"assessments"`
	Count          int                      `json:"count"`
	SearchDegraded bool                     `json:"searchDegraded,omitempty"`
}
