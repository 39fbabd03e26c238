package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvelopeNamespace is the SOAP 1.1 envelope namespace.
const EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

const (
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNamespace = "http://www.w3.org/2001/XMLSchema"
)

// ErrNotEnvelope is returned when a response body is not a SOAP envelope.
var ErrNotEnvelope = errors.New("not a soap envelope")

// ErrMalformedResponse marks a successful HTTP response whose body could not
// be read as a SOAP envelope.
var ErrMalformedResponse = errors.New("malformed soap response")

// Param is a single named operation argument.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered argument list. Document/literal services expect the
// schema sequence order, so a map is not enough.
type Params []Param

// Set replaces the value for name or appends it.
func (p *Params) Set(name string, value any) {
	for i := range *p {
		if (*p)[i].Name == name {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Name: name, Value: value})
}

// Get returns the value stored for name.
func (p Params) Get(name string) (any, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Names lists parameter names in order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for _, param := range p {
		names = append(names, param.Name)
	}
	return names
}

// Header is an out-of-band SOAP header block.
type Header struct {
	Namespace string
	Name      string
	Fields    Params
}

// Envelope is a decoded SOAP envelope.
type Envelope struct {
	Header *Node
	Body   *Node
}

// Fault is a SOAP 1.1 fault returned by the service.
type Fault struct {
	Code    string
	Message string
	Actor   string
	Detail  *Node
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return "soap fault: " + f.Message
	}
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.Message)
}

// EncodeEnvelope renders a request envelope for operation in namespace.
func EncodeEnvelope(namespace, operation string, headers []Header, params Params) ([]byte, error) {
	if strings.TrimSpace(operation) == "" {
		return nil, errors.New("operation name required")
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:soap"}, Value: EnvelopeNamespace},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNamespace},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: xsdNamespace},
		},
	}
	if err := enc.EncodeToken(envelope); err != nil {
		return nil, err
	}

	if len(headers) > 0 {
		header := xml.StartElement{Name: xml.Name{Local: "soap:Header"}}
		if err := enc.EncodeToken(header); err != nil {
			return nil, err
		}
		for _, h := range headers {
			if err := encodeElement(enc, xml.Name{Space: h.Namespace, Local: h.Name}, h.Fields); err != nil {
				return nil, fmt.Errorf("encode header %s: %w", h.Name, err)
			}
		}
		if err := enc.EncodeToken(header.End()); err != nil {
			return nil, err
		}
	}

	body := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}
	if err := enc.EncodeToken(body); err != nil {
		return nil, err
	}
	if err := encodeElement(enc, xml.Name{Space: namespace, Local: operation}, params); err != nil {
		return nil, fmt.Errorf("encode %s: %w", operation, err)
	}
	if err := enc.EncodeToken(body.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, name xml.Name, value any) error {
	start := xml.StartElement{Name: name}
	switch v := value.(type) {
	case nil:
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "xsi:nil"}, Value: "true"}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
	case Params:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, param := range v {
			if err := encodeElement(enc, xml.Name{Local: param.Name}, param.Value); err != nil {
				return err
			}
		}
	case []int:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range v {
			if err := encodeElement(enc, xml.Name{Local: "int"}, item); err != nil {
				return err
			}
		}
	case []int64:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range v {
			if err := encodeElement(enc, xml.Name{Local: "long"}, item); err != nil {
				return err
			}
		}
	case []string:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range v {
			if err := encodeElement(enc, xml.Name{Local: "string"}, item); err != nil {
				return err
			}
		}
	default:
		text, err := scalarText(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name.Local, err)
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if text != "" {
			if err := enc.EncodeToken(xml.CharData(text)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("unsupported parameter type %T", value)
	}
}

// ParseEnvelope decodes a SOAP response body.
func ParseEnvelope(data []byte) (*Envelope, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if root.XMLName.Local != "Envelope" {
		return nil, fmt.Errorf("%w: root element %q", ErrNotEnvelope, root.XMLName.Local)
	}
	body := root.Child("Body")
	if body == nil {
		return nil, fmt.Errorf("%w: missing Body", ErrNotEnvelope)
	}
	return &Envelope{Header: root.Child("Header"), Body: body}, nil
}

// Fault returns the fault carried in the body, if any.
func (e *Envelope) Fault() *Fault {
	if e == nil {
		return nil
	}
	node := e.Body.Child("Fault")
	if node == nil {
		return nil
	}
	return &Fault{
		Code:    strings.TrimSpace(node.Child("faultcode").Value()),
		Message: node.Child("faultstring").Value(),
		Actor:   strings.TrimSpace(node.Child("faultactor").Value()),
		Detail:  node.Child("detail"),
	}
}

// Payload returns the first body element, normally <OperationResponse>.
func (e *Envelope) Payload() *Node {
	if e == nil || e.Body == nil {
		return nil
	}
	for _, child := range e.Body.Children {
		if child.XMLName.Local != "Fault" {
			return child
		}
	}
	return nil
}
