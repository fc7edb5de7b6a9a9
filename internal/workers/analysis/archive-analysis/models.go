// internal/workers/analysis/archive-analysis/models.go
package archiveanalysis

// Input is one finished assessment to persist. RiskLevel and DepthIndex come
// from the flood-vulnerability worker's output variables.
type Input struct {
	Location   string  `json:"location"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	RiskLevel  string  `json:"riskLevel"`
	DepthIndex float64 `json:"depthIndex"`
	Summary    string  `json:"final_result"`
	Analysis   string  `json:"analysis,omitempty"`
}

// Output reports where the assessment landed. Indexed and Cached are
// best-effort flags; only the Postgres write is load-bearing.
type Output struct {
	AssessmentID string `json:"assessmentId"`
	Archived     bool   `json:"archived"`
	Indexed      bool   `json:"indexed"`
	Cached       bool   `json:"cached"`
	ArchivedAt   string `json:"archivedAt"`
}
