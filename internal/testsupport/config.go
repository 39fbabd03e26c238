package testsupport

import (
	"path/filepath"
	"testing"

	"teamdesk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with credentials filled in and the journal
// placed in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TeamDesk.Server = "http://127.0.0.1:0/service.asmx"
	cfgVal.TeamDesk.Email = "tester@example.com"
	cfgVal.TeamDesk.Password = "secret"
	cfgVal.Journal.Path = filepath.Join(base, "journal.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServer points the config at a service endpoint, usually FakeServer.Endpoint.
func WithServer(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TeamDesk.Server = endpoint
	}
}

// WithJournal enables the call journal.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}

// WithCapture enables raw exchange capture.
func WithCapture() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Debug.CaptureExchanges = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Journal.Path)
}
