// internal/common/earthengine/expression.go
package earthengine

import "strconv"

// Expression is a serialized computation graph in the wire format the
// platform's REST API accepts: a table of function invocations keyed by
// node id, plus the id of the node whose value is the result.
type Expression struct {
	Result string                 `json:"result"`
	Values map[string]interface{} `json:"values"`
}

// Ref points at a node inside a Builder's graph.
type Ref string

// Args are the named arguments of one function invocation. Ref values
// encode as node references, everything else as constants.
type Args map[string]interface{}

func (a Args) encode() map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for name, value := range a {
		if ref, ok := value.(Ref); ok {
			out[name] = map[string]interface{}{"valueReference": string(ref)}
			continue
		}
		out[name] = map[string]interface{}{"constantValue": value}
	}
	return out
}

// Builder accumulates function invocation nodes into an Expression.
type Builder struct {
	values map[string]interface{}
	next   int
}

func NewBuilder() *Builder {
	return &Builder{values: make(map[string]interface{})}
}

// Invoke appends a function invocation node and returns a Ref to it.
func (b *Builder) Invoke(functionName string, args Args) Ref {
	id := strconv.Itoa(b.next)
	b.next++
	b.values[id] = map[string]interface{}{
		"functionInvocationValue": map[string]interface{}{
			"functionName": functionName,
			"arguments":    args.encode(),
		},
	}
	return Ref(id)
}

// Expression finalizes the graph with result as its output node.
func (b *Builder) Expression(result Ref) *Expression {
	return &Expression{Result: string(result), Values: b.values}
}
