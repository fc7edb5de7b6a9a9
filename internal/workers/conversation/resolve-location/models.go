// internal/workers/conversation/resolve-location/models.go
package resolvelocation

// Input is the job variable payload: the extracted place name.
type Input struct {
	Location string `json:"location"`
}

// Output carries the resolved coordinates. Resolved is false on a miss or a
// provider failure; the turn continues without coordinates either way.
type Output struct {
	Resolved bool     `json:"resolved"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}
