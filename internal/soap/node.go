package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"teamdesk/internal/textenc"
)

// Node is a generic XML element. Namespaces are kept on XMLName but lookups
// match on local names only.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

// Parse decodes the first element found in data.
func Parse(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads the first element from r.
func Decode(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = textenc.CharsetReader
	var root Node
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	return &root, nil
}

// UnmarshalXML builds the tree from the decoder token stream.
func (n *Node) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.XMLName = start.Name
	n.Attrs = append([]xml.Attr(nil), start.Attr...)
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child := &Node{}
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n.Text = text.String()
			if len(n.Children) > 0 && strings.TrimSpace(n.Text) == "" {
				n.Text = ""
			}
			return nil
		}
	}
}

// MarshalXML writes the tree back out using local names only, which lets
// Decode target structs tagged without namespaces.
func (n *Node) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: n.XMLName.Local}}
	for _, attr := range n.Attrs {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr.Name.Local}, Value: attr.Value})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if len(n.Children) == 0 && n.Text != "" {
		if err := e.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := child.MarshalXML(e, xml.StartElement{}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.XMLName.Local
}

// Child returns the first child element with the given local name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.XMLName.Local == name {
			return child
		}
	}
	return nil
}

// ChildrenNamed returns every child element with the given local name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, child := range n.Children {
		if child.XMLName.Local == name {
			out = append(out, child)
		}
	}
	return out
}

// Lookup walks a path of local names from n.
func (n *Node) Lookup(path ...string) *Node {
	current := n
	for _, name := range path {
		current = current.Child(name)
		if current == nil {
			return nil
		}
	}
	return current
}

// Value returns the element text.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	return n.Text
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attrs {
		if attr.Name.Local == name && attr.Name.Space != "xmlns" {
			return attr.Value, true
		}
	}
	return "", false
}

// Empty reports whether the element has neither child elements nor text.
func (n *Node) Empty() bool {
	if n == nil {
		return true
	}
	return len(n.Children) == 0 && strings.TrimSpace(n.Text) == ""
}

// Decode unmarshals the element into v with encoding/xml rules.
func (n *Node) Decode(v any) error {
	if n == nil {
		return fmt.Errorf("decode %T: nil node", v)
	}
	data, err := xml.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.Name(), err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode node %s: %w", n.Name(), err)
	}
	return nil
}

// XML renders the element, indented, for diagnostics.
func (n *Node) XML() string {
	if n == nil {
		return ""
	}
	data, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
