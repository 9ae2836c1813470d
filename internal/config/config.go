// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for zero-downtime updates.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blueberrycongee/copydesk/internal/credential"
)

// Config represents the complete service configuration.
type Config struct {
	Server      ServerConfig               `yaml:"server"`
	Auth        AuthConfig                 `yaml:"auth"`
	Providers   map[string]ProviderConfig  `yaml:"providers"`
	Tasks       map[string]TaskRouteConfig `yaml:"tasks"`
	RateLimit   RateLimitConfig            `yaml:"rate_limit"`
	Credentials CredentialsConfig          `yaml:"credentials"`
	Secrets     SecretsConfig              `yaml:"secrets"`
	Content     ContentConfig              `yaml:"content"`
	Generation  GenerationConfig           `yaml:"generation"`
	Logging     LoggingConfig              `yaml:"logging"`
	Metrics     MetricsConfig              `yaml:"metrics"`
	Tracing     TracingConfig              `yaml:"tracing"`
	CORS        CORSConfig                 `yaml:"cors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// AuthConfig selects the bearer token authenticators.
type AuthConfig struct {
	JWT  JWTConfig  `yaml:"jwt"`
	OIDC OIDCConfig `yaml:"oidc"`
}

// JWTConfig configures HS256 session tokens.
type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	Issuer    string        `yaml:"issuer"`
	Audience  string        `yaml:"audience"`
	ClockSkew time.Duration `yaml:"clock_skew"`
}

// OIDCConfig configures an OpenID Connect issuer.
type OIDCConfig struct {
	IssuerURL      string `yaml:"issuer_url"`
	ClientID       string `yaml:"client_id"`
	WorkspaceClaim string `yaml:"workspace_claim"`
	AdminGroup     string `yaml:"admin_group"`
}

// ProviderConfig binds a provider slot to a vendor and model. APIKey is the
// operator default and may be a secret reference (env://, vault://).
type ProviderConfig struct {
	Vendor    string        `yaml:"vendor"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TaskRouteConfig names the slots serving a task.
type TaskRouteConfig struct {
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`
}

// RateLimitConfig defines the gate's limiter.
type RateLimitConfig struct {
	Backend  string                  `yaml:"backend"` // memory, redis
	FailOpen bool                    `yaml:"fail_open"`
	Redis    RedisConfig             `yaml:"redis"`
	Policies map[string]PolicyConfig `yaml:"policies"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// PolicyConfig is one fixed-window limit.
type PolicyConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// CredentialsConfig configures workspace key storage.
type CredentialsConfig struct {
	Postgres      PostgresConfig `yaml:"postgres"`
	EncryptionKey string         `yaml:"encryption_key"`
	CacheTTL      time.Duration  `yaml:"cache_ttl"`
}

// PostgresConfig contains database settings. An empty DSN keeps workspace
// keys in memory.
type PostgresConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// SecretsConfig configures secret reference resolution.
type SecretsConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Vault    VaultConfig   `yaml:"vault"`
}

// VaultConfig contains Vault settings.
type VaultConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	AuthMethod string `yaml:"auth_method"`
	Token      string `yaml:"token"`
	RoleID     string `yaml:"role_id"`
	SecretID   string `yaml:"secret_id"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// ContentConfig holds content defaults.
type ContentConfig struct {
	Language      string            `yaml:"language"`
	BrandTone     string            `yaml:"brand_tone"`
	BrandTones    map[string]string `yaml:"brand_tones"`
	Patterns      []PatternConfig   `yaml:"patterns"`
	ReviewTimeout time.Duration     `yaml:"review_timeout"`
}

// PatternConfig is a configured hook, CTA or structure.
type PatternConfig struct {
	Kind   string `yaml:"kind"`
	Text   string `yaml:"text"`
	Bucket string `yaml:"bucket"`
}

// GenerationConfig bounds provider attempts.
type GenerationConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, text
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP/HTTP endpoint, e.g. "localhost:4318"
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Insecure    bool    `yaml:"insecure"`
}

// CORSConfig contains browser CORS settings.
type CORSConfig struct {
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedHeaders []string      `yaml:"allowed_headers"`
	MaxAge         time.Duration `yaml:"max_age"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Auth: AuthConfig{
			JWT: JWTConfig{Issuer: "copydesk", ClockSkew: 30 * time.Second},
		},
		RateLimit: RateLimitConfig{
			Backend:  "memory",
			FailOpen: true,
			Redis:    RedisConfig{KeyPrefix: "copydesk:ratelimit"},
			Policies: map[string]PolicyConfig{
				"generation": {Limit: 10, Window: time.Minute},
				"chat":       {Limit: 30, Window: time.Minute},
			},
		},
		Credentials: CredentialsConfig{
			Postgres: PostgresConfig{
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				ConnLifetime: 30 * time.Minute,
			},
			CacheTTL: 30 * time.Second,
		},
		Secrets: SecretsConfig{CacheTTL: 5 * time.Minute},
		Content: ContentConfig{
			Language:      "es",
			ReviewTimeout: 20 * time.Second,
		},
		Generation: GenerationConfig{AttemptTimeout: 60 * time.Second},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "copydesk",
			SampleRate:  1.0,
			Insecure:    true,
		},
		CORS: CORSConfig{
			AllowedHeaders: []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID"},
			MaxAge:         10 * time.Minute,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it over the defaults
// and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are reported.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.JWT.Secret == "" && c.Auth.OIDC.IssuerURL == "" {
		add("auth: configure auth.jwt.secret or auth.oidc.issuer_url")
	}
	if c.Auth.JWT.Secret != "" && len(c.Auth.JWT.Secret) < 16 {
		add("auth.jwt.secret must be at least 16 bytes")
	}
	if c.Auth.OIDC.IssuerURL != "" && c.Auth.OIDC.ClientID == "" {
		add("auth.oidc.client_id is required with issuer_url")
	}

	if _, ok := c.Providers[string(credential.PrimaryLLM)]; !ok {
		add("providers.%s is required", credential.PrimaryLLM)
	}
	for slot, p := range c.Providers {
		if !credential.Provider(slot).Valid() {
			add("providers.%s: unknown slot (want one of %s)", slot, slotNames())
			continue
		}
		if p.Vendor == "" {
			add("providers.%s: vendor is required", slot)
		}
		if p.Model == "" {
			add("providers.%s: model is required", slot)
		}
		if p.Timeout < 0 {
			add("providers.%s: timeout cannot be negative", slot)
		}
		if p.MaxTokens < 0 {
			add("providers.%s: max_tokens cannot be negative", slot)
		}
	}

	for task, route := range c.Tasks {
		if _, ok := c.Providers[route.Primary]; !ok {
			add("tasks.%s: primary slot %q is not configured", task, route.Primary)
		}
		if route.Fallback != "" {
			if _, ok := c.Providers[route.Fallback]; !ok {
				add("tasks.%s: fallback slot %q is not configured", task, route.Fallback)
			}
			if route.Fallback == route.Primary {
				add("tasks.%s: fallback must differ from primary", task)
			}
		}
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if len(c.RateLimit.Redis.Addrs) == 0 {
			add("rate_limit.redis.addrs is required for the redis backend")
		}
	default:
		add("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	for name, p := range c.RateLimit.Policies {
		if p.Limit < 0 {
			add("rate_limit.policies.%s: limit cannot be negative", name)
		}
		if p.Window <= 0 {
			add("rate_limit.policies.%s: window must be positive", name)
		}
	}

	if c.Credentials.Postgres.DSN != "" && c.Credentials.EncryptionKey == "" {
		add("credentials.encryption_key is required with credentials.postgres.dsn")
	}
	if c.Secrets.Vault.Enabled && c.Secrets.Vault.Address == "" {
		add("secrets.vault.address is required when vault is enabled")
	}

	if c.Content.ReviewTimeout <= 0 {
		add("content.review_timeout must be positive")
	}
	if c.Generation.AttemptTimeout <= 0 {
		add("generation.attempt_timeout must be positive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		add("tracing.sample_rate must be between 0 and 1")
	}

	return errors.Join(errs...)
}

func slotNames() string {
	names := make([]string, 0, len(credential.Providers))
	for _, p := range credential.Providers {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
