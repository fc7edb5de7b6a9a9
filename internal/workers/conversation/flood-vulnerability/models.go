// internal/workers/conversation/flood-vulnerability/models.go
package floodvulnerability

import "disaster-eye-workers/internal/models"

// Input is the job variable payload: the resolved coordinates plus the
// optional location label. Absent coordinates are legal; the output then
// carries the synthetic no-coordinates payload.
type Input struct {
	Location string   `json:"location,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

// Output is the analysis outcome: the markdown summary and the map payload
// for the frontend client.
type Output struct {
	ResultSummary string            `json:"final_result"`
	MapPayload    models.MapPayload `json:"map_data"`
	RiskLevel     string            `json:"riskLevel,omitempty"`
	DepthIndex    *float64          `json:"depthIndex,omitempty"`
}
