package testsupport

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"teamdesk/internal/soap"
)

// FakeNamespace is the target namespace the fake service advertises.
const FakeNamespace = "urn:soap.teamdesk.net"

// FakeSessionID is the token the default Login handler hands out.
const FakeSessionID = "sess-1"

var fakeOperations = []string{
	"Login", "Create", "Delete", "GetDeleted", "GetUpdated", "DescribeApp",
	"DescribeTable", "DescribeTables", "Query", "Retrieve", "Update", "Upsert",
	"GetAttachment", "GetAttachmentInfo", "SetAttachment", "GetUserInfo", "SendMail",
}

// RecordedCall is one SOAP request received by FakeServer.
type RecordedCall struct {
	Operation  string
	SOAPAction string
	UserAgent  string
	SessionID  string
	// Request is the operation element with its parameter children.
	Request *soap.Node
}

// Param returns the text of a top-level parameter.
func (c RecordedCall) Param(name string) (string, bool) {
	child := c.Request.Child(name)
	if child == nil {
		return "", false
	}
	return child.Value(), true
}

// Items returns the text of every item in a list parameter.
func (c RecordedCall) Items(name string) []string {
	list := c.Request.Child(name)
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.Children))
	for _, child := range list.Children {
		out = append(out, child.Value())
	}
	return out
}

// Reply produces the SOAP body content for a call, usually built with
// ResultReply, EmptyReply, or FaultReply.
type Reply func(call RecordedCall) string

// FakeServer is an httptest server speaking the TeamDesk SOAP dialect. It
// serves a WSDL at <Endpoint>?wsdl and records every POSTed call.
type FakeServer struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    []RecordedCall
	replies  map[string]Reply
	bodies   map[string]string
	wsdlHits int
}

// NewFakeServer starts a fake service whose Login succeeds with FakeSessionID
// and whose other operations answer with an empty response until Handle
// overrides them.
func NewFakeServer(t testing.TB) *FakeServer {
	t.Helper()
	fake := &FakeServer{replies: map[string]Reply{}, bodies: map[string]string{}}
	fake.Handle("Login", ResultReply("Login", "<SessionId>"+FakeSessionID+"</SessionId>"))
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)
	return fake
}

// Endpoint is the service URL to hand to teamdesk.New.
func (f *FakeServer) Endpoint() string {
	return f.server.URL + "/service.asmx"
}

// Handle sets the reply for an operation.
func (f *FakeServer) Handle(operation string, reply Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[operation] = reply
}

// HandleBody answers an operation with body as the whole HTTP 200 response,
// without an envelope around it.
func (f *FakeServer) HandleBody(operation, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[operation] = body
}

// Calls returns every recorded call in arrival order.
func (f *FakeServer) Calls() []RecordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedCall(nil), f.calls...)
}

// Operations returns the operation names of every recorded call in order.
func (f *FakeServer) Operations() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Operation
	}
	return out
}

// LastCall returns the most recent call to operation.
func (f *FakeServer) LastCall(operation string) (RecordedCall, bool) {
	calls := f.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Operation == operation {
			return calls[i], true
		}
	}
	return RecordedCall{}, false
}

// WSDLHits reports how often the WSDL was fetched.
func (f *FakeServer) WSDLHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wsdlHits
}

func (f *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f.mu.Lock()
		f.wsdlHits++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = io.WriteString(w, f.wsdl())
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := soap.ParseEnvelope(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	request := env.Payload()
	call := RecordedCall{
		Operation:  request.Name(),
		SOAPAction: strings.Trim(r.Header.Get("SOAPAction"), `"`),
		UserAgent:  r.Header.Get("User-Agent"),
		SessionID:  env.Header.Lookup("SessionHeader", "sessionId").Value(),
		Request:    request,
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply, ok := f.replies[call.Operation]
	rawBody, raw := f.bodies[call.Operation]
	f.mu.Unlock()
	if raw {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = io.WriteString(w, rawBody)
		return
	}
	if !ok {
		reply = EmptyReply(call.Operation)
	}

	content := reply(call)
	status := http.StatusOK
	if strings.Contains(content, "Fault>") {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?>`+
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`+
		content+`</soap:Body></soap:Envelope>`)
}

func (f *FakeServer) wsdl() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<wsdl:definitions targetNamespace="` + FakeNamespace + `" xmlns:wsdl="http://schemas.xmlsoap.org/wsdl/" xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/">`)
	b.WriteString(`<wsdl:binding name="ApiSoap">`)
	for _, op := range fakeOperations {
		fmt.Fprintf(&b, `<wsdl:operation name="%s"><soap:operation soapAction="%s/%s" style="document"/></wsdl:operation>`, op, FakeNamespace, op)
	}
	b.WriteString(`</wsdl:binding>`)
	b.WriteString(`<wsdl:service name="Api"><wsdl:port name="ApiSoap" binding="tns:ApiSoap">`)
	b.WriteString(`<soap:address location="` + f.Endpoint() + `"/>`)
	b.WriteString(`</wsdl:port></wsdl:service></wsdl:definitions>`)
	return b.String()
}

// ResultReply answers with <OpResponse><OpResult>inner</OpResult></OpResponse>.
func ResultReply(operation, inner string) Reply {
	return func(RecordedCall) string {
		return fmt.Sprintf(`<%[1]sResponse xmlns="%[2]s"><%[1]sResult>%[3]s</%[1]sResult></%[1]sResponse>`, operation, FakeNamespace, inner)
	}
}

// EmptyReply answers with an empty <OpResponse/> element.
func EmptyReply(operation string) Reply {
	return RawReply(fmt.Sprintf(`<%sResponse xmlns="%s"/>`, operation, FakeNamespace))
}

// RawReply answers with fixed body content.
func RawReply(content string) Reply {
	return func(RecordedCall) string { return content }
}

// FaultReply answers with a SOAP fault.
func FaultReply(code, message string) Reply {
	return RawReply(`<soap:Fault><faultcode>` + code + `</faultcode><faultstring>` + message + `</faultstring></soap:Fault>`)
}
