package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIToken, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != Default().Server.URL {
		t.Errorf("server url = %q, want default", cfg.Server.URL)
	}
}

func TestLoadParsesYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database_path: /tmp/janitor.db
action_timeout: 10s
server:
  url: https://janitor.example.com/
  token: from-file
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIToken, "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.URL != "https://janitor.example.com" {
		t.Errorf("server url = %q, trailing slash not trimmed", cfg.Server.URL)
	}
	if cfg.Server.Token != "from-env" {
		t.Errorf("token = %q, want env override", cfg.Server.Token)
	}
	if cfg.ActionTimeout != 10*time.Second {
		t.Errorf("action_timeout = %v", cfg.ActionTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.PageSize != Default().PageSize {
		t.Errorf("page_size default lost: %d", cfg.PageSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Token = "secret-token"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	t.Setenv(EnvAPIToken, "")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Token != "secret-token" {
		t.Errorf("token = %q after round trip", loaded.Server.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing database path", func(c *Config) { c.DatabasePath = "" }, "database_path is required"},
		{"bad server url", func(c *Config) { c.Server.URL = "not a url" }, "server.url"},
		{"ftp server url", func(c *Config) { c.Server.URL = "ftp://host" }, "server.url must start with http"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
		{"zero rate", func(c *Config) { c.RequestsPerSecond = 0 }, "requests_per_second must be greater than 0"},
		{"short action timeout", func(c *Config) { c.ActionTimeout = time.Millisecond }, "action_timeout"},
		{"page size too big", func(c *Config) { c.PageSize = 501 }, "page_size must be at most 500"},
		{"bad cors origin", func(c *Config) { c.CORSAllowedOrigin = "example.com" }, "cors_allowed_origin"},
		{"wildcard cors origin", func(c *Config) { c.CORSAllowedOrigin = "*" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
