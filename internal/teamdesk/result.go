package teamdesk

import (
	"strconv"
	"strings"

	"teamdesk/internal/soap"
)

// ResultKind discriminates the two successful response shapes.
type ResultKind int

const (
	// ResultEmpty is an empty response element, meaning plain success.
	ResultEmpty ResultKind = iota
	// ResultValue carries the <Method>Result element.
	ResultValue
)

func (k ResultKind) String() string {
	if k == ResultValue {
		return "value"
	}
	return "empty"
}

// Result is the unwrapped outcome of a successful call.
type Result struct {
	kind   ResultKind
	method string
	node   *soap.Node
}

// Kind reports which response shape was received.
func (r Result) Kind() ResultKind { return r.kind }

// Method is the remote operation that produced the result.
func (r Result) Method() string { return r.method }

// Node returns the <Method>Result element, or nil for an empty result.
func (r Result) Node() *soap.Node { return r.node }

// Bool reports true for an empty success, otherwise the boolean text of the
// result element.
func (r Result) Bool() bool {
	if r.kind == ResultEmpty {
		return true
	}
	value, err := strconv.ParseBool(strings.TrimSpace(r.node.Value()))
	return err == nil && value
}

// Ints reads a list of integers such as record ids. An empty result yields nil.
func (r Result) Ints() ([]int, error) {
	if r.kind == ResultEmpty || r.node == nil {
		return nil, nil
	}
	var out []int
	for _, child := range r.node.Children {
		value, err := strconv.Atoi(strings.TrimSpace(child.Value()))
		if err != nil {
			return nil, invalidResponse(r.method, "element %s is not an integer: %q", child.Name(), child.Value())
		}
		out = append(out, value)
	}
	if len(out) == 0 && strings.TrimSpace(r.node.Value()) != "" {
		value, err := strconv.Atoi(strings.TrimSpace(r.node.Value()))
		if err != nil {
			return nil, invalidResponse(r.method, "result is not an integer list: %q", r.node.Value())
		}
		out = append(out, value)
	}
	return out, nil
}

// Decode unmarshals the result element into v by local element names.
func (r Result) Decode(v any) error {
	if r.kind == ResultEmpty || r.node == nil {
		return invalidResponse(r.method, "empty result")
	}
	if err := r.node.Decode(v); err != nil {
		return invalidResponse(r.method, "%v", err)
	}
	return nil
}
