package soap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamdesk/internal/soap"
)

func TestEncodeEnvelopeRoundTripsHeadersAndParams(t *testing.T) {
	var params soap.Params
	params.Set("table", "Web & <Site>")
	params.Set("ids", []int{1, 2})
	params.Set("columns", []string{"Name", "URL"})
	params.Set("revision", 0)

	header := soap.Header{
		Namespace: "urn:soap.teamdesk.net",
		Name:      "SessionHeader",
		Fields:    soap.Params{{Name: "sessionId", Value: "abc"}},
	}

	data, err := soap.EncodeEnvelope("urn:soap.teamdesk.net", "Retrieve", []soap.Header{header}, params)
	require.NoError(t, err)

	env, err := soap.ParseEnvelope(data)
	require.NoError(t, err)

	session := env.Header.Child("SessionHeader")
	require.NotNil(t, session)
	require.Equal(t, "urn:soap.teamdesk.net", session.XMLName.Space)
	require.Equal(t, "abc", session.Child("sessionId").Value())

	op := env.Payload()
	require.Equal(t, "Retrieve", op.Name())
	require.Equal(t, "urn:soap.teamdesk.net", op.XMLName.Space)
	require.Equal(t, []string{"table", "ids", "columns", "revision"}, childNames(op))
	require.Equal(t, "Web & <Site>", op.Child("table").Value())
	require.Equal(t, "urn:soap.teamdesk.net", op.Child("table").XMLName.Space)

	ids := op.Child("ids").ChildrenNamed("int")
	require.Len(t, ids, 2)
	require.Equal(t, "2", ids[1].Value())
	columns := op.Child("columns").ChildrenNamed("string")
	require.Equal(t, "URL", columns[1].Value())
	require.Equal(t, "0", op.Child("revision").Value())
}

func TestEncodeEnvelopeWithoutHeaders(t *testing.T) {
	data, err := soap.EncodeEnvelope("urn:x", "DescribeApp", nil, nil)
	require.NoError(t, err)
	require.NotContains(t, string(data), "soap:Header")

	env, err := soap.ParseEnvelope(data)
	require.NoError(t, err)
	require.Nil(t, env.Header)
	require.True(t, env.Payload().Empty())
}

func TestEncodeEnvelopeFormatsTimes(t *testing.T) {
	at := time.Date(2011, 6, 20, 0, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	data, err := soap.EncodeEnvelope("urn:x", "GetUpdated", nil, soap.Params{{Name: "startTime", Value: at}})
	require.NoError(t, err)

	env, err := soap.ParseEnvelope(data)
	require.NoError(t, err)
	require.Equal(t, "2011-06-20T00:00:00+02:00", env.Payload().Child("startTime").Value())
}

func TestEncodeEnvelopeRejectsUnsupportedTypes(t *testing.T) {
	_, err := soap.EncodeEnvelope("urn:x", "Create", nil, soap.Params{{Name: "data", Value: struct{}{}}})
	require.ErrorContains(t, err, "unsupported parameter type")

	_, err = soap.EncodeEnvelope("urn:x", " ", nil, nil)
	require.Error(t, err)
}

func TestParamsSetReplacesInPlace(t *testing.T) {
	var params soap.Params
	params.Set("a", 1)
	params.Set("b", 2)
	params.Set("a", 3)

	require.Equal(t, []string{"a", "b"}, params.Names())
	value, ok := params.Get("a")
	require.True(t, ok)
	require.Equal(t, 3, value)
	require.False(t, params.Has("c"))
}

func TestParseEnvelopeFault(t *testing.T) {
	body := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Client</faultcode>
      <faultstring>Invalid column name 'Foo'</faultstring>
      <detail />
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

	env, err := soap.ParseEnvelope([]byte(body))
	require.NoError(t, err)
	fault := env.Fault()
	require.NotNil(t, fault)
	require.Equal(t, "soap:Client", fault.Code)
	require.Equal(t, "Invalid column name 'Foo'", fault.Message)
	require.Nil(t, env.Payload())
	require.Equal(t, "soap fault soap:Client: Invalid column name 'Foo'", fault.Error())
}

func TestParseEnvelopeRejectsOtherDocuments(t *testing.T) {
	_, err := soap.ParseEnvelope([]byte(`<html><body>oops</body></html>`))
	require.ErrorIs(t, err, soap.ErrNotEnvelope)

	_, err = soap.ParseEnvelope([]byte(`not xml`))
	require.Error(t, err)
}

func childNames(n *soap.Node) []string {
	names := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		names = append(names, child.Name())
	}
	return names
}
