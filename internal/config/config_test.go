package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytmdctrl/internal/config"
	"ytmdctrl/internal/identity"
)

func TestLoadDefaultConfigExpandsTokenFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "ytmdctrl", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Auth.TokenFile != filepath.Join(tempHome, ".config", "ytmdctrl.tkn") {
		t.Fatalf("unexpected token file: %q", cfg.Auth.TokenFile)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != identity.DefaultPort {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if cfg.ApprovalTimeout() != 30*time.Second {
		t.Fatalf("unexpected approval timeout %s", cfg.ApprovalTimeout())
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Fatalf("unexpected request timeout %s", cfg.RequestTimeout())
	}
	if cfg.HTTP.RequestsPerSecond != 2 {
		t.Fatalf("unexpected request rate %v", cfg.HTTP.RequestsPerSecond)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if app := cfg.App(); app.ID != "ytmdctrl" || app.Name == "" || app.Version == "" {
		t.Fatalf("unexpected app info %+v", app)
	}
}

func TestLoadCustomConfigKeepsHostVerbatim(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[server]
host = "127.0.0.1"
port = 9000

[auth]
approval_timeout_seconds = 5
token_file = "` + filepath.Join(dir, "tokens.json") + `"

[logging]
level = "WARNING"
format = "text"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != path || !exists {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if got := cfg.Identity(); got != identity.Normalize("127.0.0.1", 9000) {
		t.Fatalf("unexpected identity %v", got)
	}
	if cfg.ApprovalTimeout() != 5*time.Second {
		t.Fatalf("unexpected approval timeout %s", cfg.ApprovalTimeout())
	}
	if cfg.Auth.TokenFile != filepath.Join(dir, "tokens.json") {
		t.Fatalf("unexpected token file %q", cfg.Auth.TokenFile)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Setenv("YTMDCTRL_HOST", "media-pc.lan")
	t.Setenv("YTMDCTRL_PORT", "9999")
	t.Setenv("YTMDCTRL_TOKEN_FILE", filepath.Join(dir, "env.tkn"))

	cfg, _, _, err := config.Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != "media-pc.lan" || cfg.Server.Port != 9999 {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if cfg.Auth.TokenFile != filepath.Join(dir, "env.tkn") {
		t.Fatalf("unexpected token file %q", cfg.Auth.TokenFile)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		env      map[string]string
		want     string
	}{
		{name: "port out of range", contents: "[server]\nport = 70000\n", want: "out of range"},
		{name: "unknown log level", contents: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "unknown log format", contents: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
		{name: "negative rate", contents: "[http]\nrequests_per_second = -1\n", want: "requests_per_second"},
		{name: "unknown key", contents: "[server]\nhostname = \"x\"\n", want: "hostname"},
		{name: "bad env port", contents: "", env: map[string]string{"YTMDCTRL_PORT": "abc"}, want: "YTMDCTRL_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.contents), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFallsBackToProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile("ytmdctrl.toml", []byte("[server]\nhost = \"studio\"\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "ytmdctrl.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Server.Host != "studio" {
		t.Fatalf("unexpected host %q", cfg.Server.Host)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.Server != def.Server || cfg.HTTP != def.HTTP || cfg.Logging != def.Logging {
		t.Fatalf("sample diverges from defaults: %+v", cfg)
	}
	if cfg.Auth.AppID != def.Auth.AppID || cfg.Auth.ApprovalTimeoutSeconds != def.Auth.ApprovalTimeoutSeconds {
		t.Fatalf("sample auth diverges from defaults: %+v", cfg.Auth)
	}
}

func TestEncodeIncludesSections(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	for _, section := range []string{"[server]", "[auth]", "[http]", "[logging]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("encoded config missing %s:\n%s", section, data)
		}
	}
}
