package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"teamdesk/internal/textenc"
)

const wsdlSOAP11Namespace = "http://schemas.xmlsoap.org/wsdl/soap/"

// ServiceDescription is the subset of a WSDL document needed to issue calls.
type ServiceDescription struct {
	Namespace string
	Endpoint  string
	Actions   map[string]string
}

// Action returns the SOAPAction for operation, falling back to
// "<namespace>/<operation>" when the description does not name one.
func (d *ServiceDescription) Action(operation string) string {
	if d == nil {
		return operation
	}
	if action, ok := d.Actions[operation]; ok && action != "" {
		return action
	}
	if d.Namespace == "" {
		return operation
	}
	return strings.TrimRight(d.Namespace, "/") + "/" + operation
}

type wsdlDocument struct {
	TargetNamespace string        `xml:"targetNamespace,attr"`
	Bindings        []wsdlBinding `xml:"binding"`
	Services        []wsdlService `xml:"service"`
}

type wsdlBinding struct {
	Operations []wsdlOperation `xml:"operation"`
}

type wsdlOperation struct {
	Name string         `xml:"name,attr"`
	SOAP *wsdlSOAPBlock `xml:"http://schemas.xmlsoap.org/wsdl/soap/ operation"`
}

type wsdlSOAPBlock struct {
	Action string `xml:"soapAction,attr"`
}

type wsdlService struct {
	Ports []wsdlPort `xml:"port"`
}

type wsdlPort struct {
	Address *wsdlAddress `xml:"http://schemas.xmlsoap.org/wsdl/soap/ address"`
}

type wsdlAddress struct {
	Location string `xml:"location,attr"`
}

// ParseWSDL extracts the target namespace, SOAP 1.1 endpoint and actions.
// Relative endpoint locations are resolved against base when it is set.
func ParseWSDL(data []byte, base string) (*ServiceDescription, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = textenc.CharsetReader
	var doc wsdlDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse wsdl: %w", err)
	}

	desc := &ServiceDescription{
		Namespace: strings.TrimSpace(doc.TargetNamespace),
		Actions:   make(map[string]string),
	}
	for _, binding := range doc.Bindings {
		for _, op := range binding.Operations {
			if op.SOAP == nil || strings.TrimSpace(op.SOAP.Action) == "" {
				continue
			}
			if _, seen := desc.Actions[op.Name]; !seen {
				desc.Actions[op.Name] = strings.TrimSpace(op.SOAP.Action)
			}
		}
	}

	for _, svc := range doc.Services {
		for _, port := range svc.Ports {
			if port.Address == nil || strings.TrimSpace(port.Address.Location) == "" {
				continue
			}
			location, err := resolveLocation(base, strings.TrimSpace(port.Address.Location))
			if err != nil {
				return nil, err
			}
			desc.Endpoint = location
			return desc, nil
		}
	}
	return desc, nil
}

func resolveLocation(base, location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", location, err)
	}
	if ref.IsAbs() || base == "" {
		return ref.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// stripQuery returns rawURL without its query string and fragment.
func stripQuery(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", errors.New("service url must be absolute")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
