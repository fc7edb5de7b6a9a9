// internal/workers/conversation/classify-intent/models.go
package classifyintent

// Input is the job variable payload: the raw utterance for one turn.
type Input struct {
	Input string `json:"input"`
}

// Output carries the classified intent back into the process instance.
// Route mirrors the workflow's branching decision so BPMN gateways can
// switch on a single variable.
type Output struct {
	Intent string `json:"intent"`
	Route  string `json:"route"` // "end" for normal chat, "query" otherwise
}
