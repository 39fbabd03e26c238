package teamdesk

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"teamdesk/internal/soap"
)

const (
	payloadElement = "any"
	dataElement    = "Data"
)

// Field is one column value of a row, in document order.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Row is one record of a query or retrieve payload.
type Row struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Get returns the value of the named column.
func (r Row) Get(name string) (string, bool) {
	for _, field := range r.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Data is the Data element of an embedded payload document.
type Data struct {
	Rows []Row      `json:"rows" yaml:"rows"`
	Node *soap.Node `json:"-" yaml:"-"`
}

// Columns returns every column name in order of first appearance.
func (d *Data) Columns() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range d.Rows {
		for _, field := range row.Fields {
			if _, ok := seen[field.Name]; ok {
				continue
			}
			seen[field.Name] = struct{}{}
			out = append(out, field.Name)
		}
	}
	return out
}

// ParsePayload extracts the Data element from the XML document a Query or
// Retrieve result carries. The document is either inline element content of
// the result (optionally wrapped in an <any> element) or an escaped XML
// string. Every failure matches ErrParseFailure.
func ParsePayload(result Result) (*Data, error) {
	source := result.Node()
	if wrapper := source.Child(payloadElement); wrapper != nil {
		source = wrapper
	}
	if source.Empty() {
		return nil, fmt.Errorf("%w: no payload in %s result", ErrParseFailure, result.Method())
	}

	var data *soap.Node
	if len(source.Children) > 0 {
		data = findData(source.Children)
	} else {
		root, err := soap.Parse([]byte(strings.TrimSpace(source.Value())))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
		}
		data = findData([]*soap.Node{root})
	}
	if data == nil {
		return nil, fmt.Errorf("%w: no %s element in %s payload", ErrParseFailure, dataElement, result.Method())
	}
	return newData(data), nil
}

// lenientPayload applies the Query/Retrieve convention: a missing or
// unreadable payload is an empty result, not an error.
func lenientPayload(result Result) (*Data, error) {
	if result.Kind() == ResultEmpty {
		return nil, nil
	}
	data, err := ParsePayload(result)
	if errors.Is(err, ErrParseFailure) {
		return nil, nil
	}
	return data, err
}

func findData(nodes []*soap.Node) *soap.Node {
	for _, node := range nodes {
		if node.Name() == dataElement {
			return node
		}
		if data := node.Child(dataElement); data != nil {
			return data
		}
	}
	return nil
}

func newData(node *soap.Node) *Data {
	data := &Data{Node: node}
	for _, rowNode := range node.Children {
		row := Row{}
		for _, fieldNode := range rowNode.Children {
			row.Fields = append(row.Fields, Field{
				Name:  DecodeColumnName(fieldNode.Name()),
				Value: fieldNode.Value(),
			})
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

var escapedName = regexp.MustCompile(`_x([0-9A-Fa-f]{4})_`)

// DecodeColumnName reverses the _xHHHH_ escaping applied to column names that
// are not valid XML names, so "Due_x0020_Date" becomes "Due Date".
func DecodeColumnName(name string) string {
	if !strings.Contains(name, "_x") {
		return name
	}
	return escapedName.ReplaceAllStringFunc(name, func(match string) string {
		code, err := strconv.ParseUint(match[2:6], 16, 32)
		if err != nil {
			return match
		}
		return string(rune(code))
	})
}
