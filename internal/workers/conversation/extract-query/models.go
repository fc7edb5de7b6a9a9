// internal/workers/conversation/extract-query/models.go
package extractquery

// Input is the job variable payload: the raw utterance for one turn.
type Input struct {
	Input string `json:"input"`
}

// Output carries the extracted query fields. When Ask is set the turn needs
// clarification: Location and Analysis are empty and AskPrompt holds the
// question to show the user.
type Output struct {
	Location  string `json:"location,omitempty"`
	Analysis  string `json:"analysis,omitempty"`
	Ask       string `json:"ask,omitempty"` // "location" or "analysis"
	AskPrompt string `json:"askPrompt,omitempty"`
}
