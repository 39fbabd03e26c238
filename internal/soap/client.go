package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPDoer is the subset of *http.Client the transport needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts SOAP 1.1 envelopes to a single service. It is not safe for
// concurrent use.
type Client struct {
	wsdlURL    string
	namespace  string
	httpClient HTTPDoer
	timeout    time.Duration
	userAgent  string
	headers    []Header
	capture    bool

	desc         *ServiceDescription
	lastRequest  []byte
	lastResponse []byte
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request, including WSDL discovery.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithNamespace sets the namespace used when the WSDL does not declare one.
func WithNamespace(namespace string) Option {
	return func(c *Client) {
		c.namespace = strings.TrimSpace(namespace)
	}
}

// WithCapture keeps the last raw request and response for diagnostics.
func WithCapture(enabled bool) Option {
	return func(c *Client) {
		c.capture = enabled
	}
}

// WithServiceDescription skips WSDL discovery.
func WithServiceDescription(desc *ServiceDescription) Option {
	return func(c *Client) {
		c.desc = desc
	}
}

// NewClient returns a transport bound to the service description at wsdlURL.
// Nothing is fetched until the first call.
func NewClient(wsdlURL string, opts ...Option) *Client {
	client := &Client{
		wsdlURL:    strings.TrimSpace(wsdlURL),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SetTimeout changes the per-request timeout. Zero disables it.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// SetUserAgent changes the User-Agent header for later requests.
func (c *Client) SetUserAgent(userAgent string) {
	c.userAgent = userAgent
}

// SetHeaders replaces the header blocks sent with every call.
func (c *Client) SetHeaders(headers ...Header) {
	c.headers = append([]Header(nil), headers...)
}

// SetCapture toggles raw exchange capture.
func (c *Client) SetCapture(enabled bool) {
	c.capture = enabled
	if !enabled {
		c.lastRequest, c.lastResponse = nil, nil
	}
}

// LastExchange returns the raw bytes of the most recent call when capture is
// enabled.
func (c *Client) LastExchange() (request, response []byte) {
	return c.lastRequest, c.lastResponse
}

// Describe returns the service description, fetching the WSDL on first use.
func (c *Client) Describe(ctx context.Context) (*ServiceDescription, error) {
	if c.desc != nil {
		return c.desc, nil
	}
	desc, err := c.discover(ctx)
	if err != nil {
		return nil, err
	}
	c.desc = desc
	return desc, nil
}

func (c *Client) discover(ctx context.Context) (*ServiceDescription, error) {
	if c.wsdlURL == "" {
		return nil, errors.New("discover service: wsdl url required")
	}
	fallback, err := stripQuery(c.wsdlURL)
	if err != nil {
		return nil, fmt.Errorf("discover service: %w", err)
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wsdlURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build wsdl request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch wsdl: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch wsdl returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read wsdl: %w", err)
	}

	desc, err := ParseWSDL(data, c.wsdlURL)
	if err != nil {
		return nil, err
	}
	if desc.Endpoint == "" {
		desc.Endpoint = fallback
	}
	if desc.Namespace == "" {
		desc.Namespace = c.namespace
	}
	if desc.Namespace == "" {
		return nil, fmt.Errorf("wsdl at %s declares no target namespace", c.wsdlURL)
	}
	return desc, nil
}

// Call invokes operation and returns the response payload element, usually
// <OperationResponse>. A fault is returned as *Fault.
func (c *Client) Call(ctx context.Context, operation string, params Params) (*Node, error) {
	desc, err := c.Describe(ctx)
	if err != nil {
		return nil, err
	}

	body, err := EncodeEnvelope(desc.Namespace, operation, c.headers, params)
	if err != nil {
		return nil, err
	}
	if c.capture {
		c.lastRequest, c.lastResponse = body, nil
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", strconv.Quote(desc.Action(operation)))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute %s (latency=%v): %w", operation, latency, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	if c.capture {
		c.lastResponse = data
	}

	env, parseErr := ParseEnvelope(data)
	if parseErr != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("%s returned %d (latency=%v)", operation, resp.StatusCode, latency)
		}
		return nil, fmt.Errorf("decode %s response: %w: %w", operation, ErrMalformedResponse, parseErr)
	}
	if fault := env.Fault(); fault != nil {
		return nil, fault
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s returned %d (latency=%v)", operation, resp.StatusCode, latency)
	}

	payload := env.Payload()
	if payload == nil {
		payload = &Node{XMLName: xml.Name{Space: desc.Namespace, Local: operation + "Response"}}
	}
	return payload, nil
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() {
	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	c.lastRequest, c.lastResponse = nil, nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
