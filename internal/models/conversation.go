// internal/models/conversation.go
package models

// Intent is the coarse classification of a conversation turn.
type Intent string

const (
	IntentNormal  Intent = "normal"
	IntentQuery   Intent = "query"
	IntentUnknown Intent = "unknown"
)

// TurnState is the record threaded through one conversation turn. Nodes never
// mutate a state they receive; they return a clone with their own fields set.
type TurnState struct {
	Input         string      `json:"input"`
	Intent        Intent      `json:"intent,omitempty"`
	Location      string      `json:"location,omitempty"`
	Analysis      string      `json:"analysis,omitempty"`
	Latitude      *float64    `json:"lat,omitempty"`
	Longitude     *float64    `json:"lon,omitempty"`
	ResultSummary string      `json:"final_result,omitempty"`
	MapPayload    *MapPayload `json:"map_data,omitempty"`
}

// Clone returns a deep copy. Pointer and slice fields are duplicated so the
// original and the clone never alias.
func (s TurnState) Clone() TurnState {
	out := s
	if s.Latitude != nil {
		lat := *s.Latitude
		out.Latitude = &lat
	}
	if s.Longitude != nil {
		lon := *s.Longitude
		out.Longitude = &lon
	}
	if s.MapPayload != nil {
		p := s.MapPayload.Clone()
		out.MapPayload = &p
	}
	return out
}

// HasCoordinates reports whether both latitude and longitude are set.
func (s TurnState) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// LocationLabel returns the location name or the default marker label.
func (s TurnState) LocationLabel() string {
	if s.Location == "" {
		return DefaultLocationLabel
	}
	return s.Location
}

// DefaultLocationLabel labels markers when no location name was extracted.
const DefaultLocationLabel = "Selected Location"

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
