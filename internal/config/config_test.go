package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
auth:
  jwt:
    secret: test-secret-0123456789
providers:
  primary_llm:
    vendor: openai
    model: gpt-4o-mini
    api_key: ${TEST_PRIMARY_KEY}
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default read timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if got := cfg.RateLimit.Policies["generation"]; got.Limit != 10 || got.Window != time.Minute {
		t.Errorf("generation policy = %+v, want 10/min", got)
	}
	if got := cfg.RateLimit.Policies["chat"]; got.Limit != 30 {
		t.Errorf("chat limit = %d, want 30", got.Limit)
	}
	if cfg.Content.Language != "es" {
		t.Errorf("default language = %q, want es", cfg.Content.Language)
	}
	if cfg.Content.ReviewTimeout != 20*time.Second {
		t.Errorf("default review timeout = %v, want 20s", cfg.Content.ReviewTimeout)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
}

func TestParse_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "sk-from-env")

	cfg, err := Parse([]byte(minimalConfig + `
rate_limit:
  policies:
    generation:
      limit: 5
      window: 30s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := cfg.Providers["primary_llm"].APIKey; got != "sk-from-env" {
		t.Errorf("api_key = %q, want sk-from-env", got)
	}
	if got := cfg.RateLimit.Policies["generation"]; got.Limit != 5 || got.Window != 30*time.Second {
		t.Errorf("generation policy = %+v", got)
	}
	if got := cfg.RateLimit.Policies["chat"]; got.Limit != 30 {
		t.Errorf("chat policy should keep its default, got %+v", got)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.JWT.Secret = "test-secret-0123456789"
	cfg.Providers = map[string]ProviderConfig{
		"primary_llm":  {Vendor: "openai", Model: "gpt-4o-mini"},
		"fallback_llm": {Vendor: "anthropic", Model: "claude-3-5-haiku-latest"},
		"review_llm":   {Vendor: "gemini", Model: "gemini-2.0-flash"},
	}
	cfg.Tasks = map[string]TaskRouteConfig{
		"generate_copy": {Primary: "primary_llm", Fallback: "fallback_llm"},
	}
	return cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "invalid port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "invalid port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "no authenticator", mutate: func(c *Config) { c.Auth.JWT.Secret = "" }, wantErr: "auth:"},
		{name: "short jwt secret", mutate: func(c *Config) { c.Auth.JWT.Secret = "short" }, wantErr: "at least 16 bytes"},
		{name: "oidc without client", mutate: func(c *Config) { c.Auth.OIDC.IssuerURL = "https://idp" }, wantErr: "client_id"},
		{name: "missing primary", mutate: func(c *Config) { delete(c.Providers, "primary_llm") }, wantErr: "providers.primary_llm is required"},
		{name: "unknown slot", mutate: func(c *Config) { c.Providers["backup"] = ProviderConfig{Vendor: "x", Model: "y"} }, wantErr: "unknown slot"},
		{name: "missing model", mutate: func(c *Config) { c.Providers["review_llm"] = ProviderConfig{Vendor: "gemini"} }, wantErr: "model is required"},
		{
			name:    "task on unconfigured slot",
			mutate:  func(c *Config) { c.Tasks["critic_copy"] = TaskRouteConfig{Primary: "nope"} },
			wantErr: "primary slot \"nope\"",
		},
		{
			name:    "fallback equals primary",
			mutate:  func(c *Config) { c.Tasks["critic_copy"] = TaskRouteConfig{Primary: "primary_llm", Fallback: "primary_llm"} },
			wantErr: "must differ",
		},
		{name: "redis without addrs", mutate: func(c *Config) { c.RateLimit.Backend = "redis" }, wantErr: "rate_limit.redis.addrs"},
		{name: "unknown backend", mutate: func(c *Config) { c.RateLimit.Backend = "etcd" }, wantErr: "memory or redis"},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.RateLimit.Policies["chat"] = PolicyConfig{Limit: 1} },
			wantErr: "window must be positive",
		},
		{name: "postgres without key", mutate: func(c *Config) { c.Credentials.Postgres.DSN = "postgres://db" }, wantErr: "encryption_key"},
		{name: "vault without address", mutate: func(c *Config) { c.Secrets.Vault.Enabled = true }, wantErr: "secrets.vault.address"},
		{name: "zero review timeout", mutate: func(c *Config) { c.Content.ReviewTimeout = 0 }, wantErr: "review_timeout"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Tracing.SampleRate = 2 }, wantErr: "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Content.ReviewTimeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"invalid server port", "review_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "sk-file")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Providers["primary_llm"].Vendor != "openai" {
		t.Errorf("vendor = %q, want openai", cfg.Providers["primary_llm"].Vendor)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}
