package testsupport

import (
	"path/filepath"
	"testing"

	"ytmdctrl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose token file lives in a per-test temp
// directory. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Auth.TokenFile = filepath.Join(base, "ytmdctrl.tkn")
	cfgVal.Auth.ApprovalTimeoutSeconds = 5
	cfgVal.HTTP.RequestTimeoutSeconds = 5
	cfgVal.HTTP.RequestsPerSecond = 0
	cfgVal.Logging.Level = "debug"

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

// WithServer points the config at a fake server.
func WithServer(server *FakeServer) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Host = server.Host()
		b.cfg.Server.Port = server.Port()
	}
}

// WithHost overrides the configured host text while keeping the port.
func WithHost(host string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Host = host
	}
}

// WithApprovalTimeout overrides the approval window in seconds.
func WithApprovalTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Auth.ApprovalTimeoutSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Auth.TokenFile)
}
