package soap_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamdesk/internal/soap"
)

func newWSDLServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var wsdlHits atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			wsdlHits.Add(1)
			w.Header().Set("Content-Type", "text/xml")
			_, _ = io.WriteString(w, `<definitions xmlns="http://schemas.xmlsoap.org/wsdl/" xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/" targetNamespace="urn:soap.teamdesk.net">
  <service name="Api"><port name="ApiSoap"><soap:address location="`+server.URL+`/api"/></port></service>
</definitions>`)
			return
		}
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		handle(w, r, body)
	}))
	t.Cleanup(server.Close)
	return server, &wsdlHits
}

func writeEnvelope(w http.ResponseWriter, status int, inner string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="utf-8"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`+inner+`</soap:Body></soap:Envelope>`)
}

func TestClientCallDiscoversOnceAndSendsHeaders(t *testing.T) {
	var seenPath, seenAction, seenAgent, seenType string
	var seenSession string
	server, wsdlHits := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		seenPath = r.URL.Path
		seenAction = r.Header.Get("SOAPAction")
		seenAgent = r.Header.Get("User-Agent")
		seenType = r.Header.Get("Content-Type")
		env, err := soap.ParseEnvelope(body)
		assert.NoError(t, err)
		seenSession = env.Header.Lookup("SessionHeader", "sessionId").Value()
		writeEnvelope(w, http.StatusOK, `<DescribeTableResponse xmlns="urn:soap.teamdesk.net"><DescribeTableResult><Id>1</Id></DescribeTableResult></DescribeTableResponse>`)
	})

	client := soap.NewClient(server.URL+"?wsdl", soap.WithUserAgent("agent/1"))
	client.SetHeaders(soap.Header{Namespace: "urn:soap.teamdesk.net", Name: "SessionHeader", Fields: soap.Params{{Name: "sessionId", Value: "s-1"}}})

	for i := 0; i < 2; i++ {
		payload, err := client.Call(context.Background(), "DescribeTable", soap.Params{{Name: "table", Value: "Website"}})
		require.NoError(t, err)
		require.Equal(t, "DescribeTableResponse", payload.Name())
		require.Equal(t, "1", payload.Lookup("DescribeTableResult", "Id").Value())
	}

	require.Equal(t, int32(1), wsdlHits.Load())
	require.Equal(t, "/api", seenPath)
	require.Equal(t, `"urn:soap.teamdesk.net/DescribeTable"`, seenAction)
	require.Equal(t, "agent/1", seenAgent)
	require.Equal(t, "text/xml; charset=utf-8", seenType)
	require.Equal(t, "s-1", seenSession)
}

func TestClientCallReturnsFault(t *testing.T) {
	server, _ := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeEnvelope(w, http.StatusInternalServerError, `<soap:Fault><faultcode>soap:Server</faultcode><faultstring>Session expired</faultstring></soap:Fault>`)
	})

	client := soap.NewClient(server.URL+"?wsdl", soap.WithCapture(true))
	_, err := client.Call(context.Background(), "Query", soap.Params{{Name: "query", Value: "SELECT"}})

	var fault *soap.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "Session expired", fault.Message)
	require.Equal(t, "soap:Server", fault.Code)

	request, response := client.LastExchange()
	require.Contains(t, string(request), "<query>SELECT</query>")
	require.Contains(t, string(response), "Session expired")

	client.SetCapture(false)
	request, response = client.LastExchange()
	require.Nil(t, request)
	require.Nil(t, response)
}

func TestClientCallEmptyBodyYieldsEmptyPayload(t *testing.T) {
	server, _ := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeEnvelope(w, http.StatusOK, "")
	})

	client := soap.NewClient(server.URL + "?wsdl")
	payload, err := client.Call(context.Background(), "SendMail", nil)
	require.NoError(t, err)
	require.Equal(t, "SendMailResponse", payload.Name())
	require.True(t, payload.Empty())
}

func TestClientCallRejectsMalformedBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":        "",
		"not xml":      "service unavailable",
		"not envelope": `<html><body>maintenance</body></html>`,
	} {
		t.Run(name, func(t *testing.T) {
			server, _ := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
				w.Header().Set("Content-Type", "text/xml")
				_, _ = io.WriteString(w, body)
			})

			client := soap.NewClient(server.URL + "?wsdl")
			_, err := client.Call(context.Background(), "DescribeApp", nil)
			require.ErrorIs(t, err, soap.ErrMalformedResponse)
			var fault *soap.Fault
			require.False(t, errors.As(err, &fault))
		})
	}
}

func TestClientCallReportsHTTPErrors(t *testing.T) {
	server, _ := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})

	client := soap.NewClient(server.URL + "?wsdl")
	_, err := client.Call(context.Background(), "DescribeApp", nil)
	require.ErrorContains(t, err, "DescribeApp returned 502")
}

func TestClientCallHonoursTimeout(t *testing.T) {
	server, _ := newWSDLServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeEnvelope(w, http.StatusOK, "")
	})

	client := soap.NewClient(server.URL+"?wsdl", soap.WithTimeout(50*time.Millisecond))
	_, err := client.Describe(context.Background())
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "GetUserInfo", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline"))
}

func TestClientDiscoveryFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := soap.NewClient(server.URL+"?wsdl").Call(context.Background(), "Login", nil)
	require.ErrorContains(t, err, "fetch wsdl returned 404")

	_, err = soap.NewClient("").Call(context.Background(), "Login", nil)
	require.Error(t, err)
}

func TestClientUsesProvidedDescription(t *testing.T) {
	var action string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		action = r.Header.Get("SOAPAction")
		writeEnvelope(w, http.StatusOK, `<LoginResponse xmlns="urn:x"><LoginResult><SessionId>abc</SessionId></LoginResult></LoginResponse>`)
	}))
	defer server.Close()

	client := soap.NewClient("", soap.WithServiceDescription(&soap.ServiceDescription{
		Namespace: "urn:x",
		Endpoint:  server.URL,
		Actions:   map[string]string{"Login": "urn:x#Login"},
	}))
	payload, err := client.Call(context.Background(), "Login", nil)
	require.NoError(t, err)
	require.Equal(t, "abc", payload.Lookup("LoginResult", "SessionId").Value())
	require.Equal(t, `"urn:x#Login"`, action)
}
