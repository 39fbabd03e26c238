package teamdesk

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"teamdesk/internal/config"
	"teamdesk/internal/logging"
	"teamdesk/internal/soap"
	"teamdesk/internal/textenc"
)

const (
	// Version is the client version embedded in the User-Agent header.
	Version = "1.0.0"
	// ClientName prefixes the User-Agent header.
	ClientName = "Go Teamdesk"

	// SessionNamespace qualifies the session header and is the fallback
	// service namespace when the WSDL declares none.
	SessionNamespace = "urn:soap.teamdesk.net"
	// SessionHeaderName is the SOAP header block carrying the session token.
	SessionHeaderName = "SessionHeader"
	// SessionField is the session header field holding the token.
	SessionField = "sessionId"

	// DefaultTimeoutSeconds applies when no timeout is configured.
	DefaultTimeoutSeconds = 60
)

// Client talks to one TeamDesk application. It is not safe for concurrent use.
type Client struct {
	login    string
	password string
	server   string

	timeoutSeconds int
	userAgent      string
	capture        bool

	charset    string
	httpClient soap.HTTPDoer
	normalizer *textenc.Normalizer
	logger     *slog.Logger
	observer   CallObserver

	transport *soap.Client
	session   session
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client soap.HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout in seconds.
func WithTimeout(seconds int) Option {
	return func(c *Client) {
		c.timeoutSeconds = seconds
	}
}

// WithUserAgent sets the caller's User-Agent suffix.
func WithUserAgent(suffix string) Option {
	return func(c *Client) {
		c.userAgent = suffix
	}
}

// WithLogger attaches a logger for debug-level call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a hook notified after every remote call.
func WithObserver(observer CallObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithSourceCharset selects the charset assumed for outgoing text that is not
// valid UTF-8.
func WithSourceCharset(charset string) Option {
	return func(c *Client) {
		c.charset = charset
	}
}

// WithDebugCapture keeps the raw bytes of the last request and response.
func WithDebugCapture(enabled bool) Option {
	return func(c *Client) {
		c.capture = enabled
	}
}

// New constructs a client for the service at server. Nothing is sent until the
// first operation.
func New(login, password, server string, opts ...Option) (*Client, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, errors.New("new teamdesk client: server endpoint required")
	}
	client := &Client{
		login:          login,
		password:       password,
		server:         server,
		timeoutSeconds: DefaultTimeoutSeconds,
		httpClient:     &http.Client{},
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	normalizer, err := textenc.New(client.charset)
	if err != nil {
		return nil, fmt.Errorf("new teamdesk client: %w", err)
	}
	client.normalizer = normalizer
	client.logger = logging.NewComponentLogger(client.logger, "teamdesk")
	return client, nil
}

// NewFromConfig builds a client from the [teamdesk] and [debug] sections.
// Explicit options are applied after the configured ones.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("new teamdesk client: config required")
	}
	td := cfg.TeamDesk
	base := []Option{
		WithTimeout(td.TimeoutSeconds),
		WithUserAgent(td.UserAgent),
		WithSourceCharset(td.SourceCharset),
		WithDebugCapture(cfg.Debug.CaptureExchanges),
	}
	return New(td.Email, td.Password, td.Server, append(base, opts...)...)
}

// SetTimeout changes the request timeout in seconds. It applies from the next
// call.
func (c *Client) SetTimeout(seconds int) {
	c.timeoutSeconds = seconds
}

// Timeout returns the request timeout in seconds.
func (c *Client) Timeout() int {
	return c.timeoutSeconds
}

// SetUserAgent replaces the caller's User-Agent suffix. It applies from the
// next call.
func (c *Client) SetUserAgent(suffix string) {
	c.userAgent = suffix
}

// UserAgent returns the full User-Agent header: the client name and version
// followed by the caller's suffix.
func (c *Client) UserAgent() string {
	return ClientName + "/" + Version + " " + c.userAgent
}

// Authenticated reports whether a session token is held.
func (c *Client) Authenticated() bool {
	return c.session.authenticated()
}

// LastExchange returns the raw bytes of the most recent request and response
// when debug capture is enabled.
func (c *Client) LastExchange() (request, response []byte) {
	if c.transport == nil {
		return nil, nil
	}
	return c.transport.LastExchange()
}

// Close releases the transport and with it the session. A later call starts
// over with a new transport and a fresh login.
func (c *Client) Close() error {
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
	c.session = session{}
	return nil
}

func (c *Client) ensureTransport() *soap.Client {
	if c.transport == nil {
		c.transport = soap.NewClient(
			c.server+"?wsdl",
			soap.WithHTTPClient(c.httpClient),
			soap.WithNamespace(SessionNamespace),
			soap.WithCapture(c.capture),
		)
	}
	c.transport.SetTimeout(time.Duration(c.timeoutSeconds) * time.Second)
	c.transport.SetUserAgent(c.UserAgent())
	return c.transport
}
