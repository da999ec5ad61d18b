package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Dir != "data" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Policy.Mode != "embedded" || cfg.Policy.DefaultProfile != "supervised" {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if !cfg.Policy.FailOpen {
		t.Error("fail_open should default to true")
	}
	if cfg.Policy.RemoteTimeout != 2*time.Second {
		t.Errorf("remote_timeout = %v", cfg.Policy.RemoteTimeout)
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentgate.yaml")
	yaml := `server:
  port: "9000"
policy:
  mode: remote
  remote_url: http://opa:8181
  fail_open: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Policy.Mode != "remote" || cfg.Policy.RemoteURL != "http://opa:8181" {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.Policy.FailOpen {
		t.Error("fail_open should be overridden to false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.Backend != "file" {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentgate.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENTGATE_PORT", "9100")
	t.Setenv("AGENTGATE_POLICY_PROFILE", "read-only")
	t.Setenv("AGENTGATE_POLICY_FAIL_OPEN", "false")
	t.Setenv("AGENTGATE_PG_MAX_CONNS", "25")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("port = %q, env should win over yaml", cfg.Server.Port)
	}
	if cfg.Policy.DefaultProfile != "read-only" {
		t.Errorf("profile = %q", cfg.Policy.DefaultProfile)
	}
	if cfg.Policy.FailOpen {
		t.Error("fail_open should be false from env")
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("max_conns = %d", cfg.Postgres.MaxConns)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "dynamo" }},
		{"file backend without dir", func(c *Config) { c.Store.Dir = "" }},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "postgres"; c.Postgres.DSN = "" }},
		{"unknown policy mode", func(c *Config) { c.Policy.Mode = "hybrid" }},
		{"remote without url", func(c *Config) { c.Policy.Mode = "remote"; c.Policy.RemoteURL = "" }},
		{"embedded without profile", func(c *Config) { c.Policy.DefaultProfile = "" }},
		{"zero breaker threshold", func(c *Config) { c.Breaker.MaxFailures = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if err := validate(&cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDisabledModeNeedsNothing(t *testing.T) {
	cfg := Defaults()
	cfg.Policy.Mode = "disabled"
	cfg.Policy.DefaultProfile = ""
	if err := validate(&cfg); err != nil {
		t.Errorf("disabled mode should validate, got %v", err)
	}
}
