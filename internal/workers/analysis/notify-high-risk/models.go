// internal/workers/analysis/notify-high-risk/models.go
package notifyhighrisk

// Skip reasons reported when no alert is attempted.
const (
	SkipDisabled       = "alerts_disabled"
	SkipBelowThreshold = "below_threshold"
	SkipNoChannels     = "no_channels"
)

// Input carries the finished assessment variables from the flood analysis.
type Input struct {
	Location   string   `json:"location,omitempty"`
	RiskLevel  string   `json:"riskLevel"`
	DepthIndex *float64 `json:"depthIndex,omitempty"`
	Summary    string   `json:"final_result,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
}

// Output reports which channels accepted the alert. Alerted is true when at
// least one channel took the message; skipped turns carry the reason instead.
type Output struct {
	Alerted   bool   `json:"alerted"`
	EmailSent bool   `json:"emailSent"`
	TopicSent bool   `json:"topicSent"`
	Skipped   string `json:"skipped,omitempty"`
	AlertedAt string `json:"alertedAt,omitempty"`
}
