package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "score < 50", "variability_ratio > 1.5",
	// "priority == high", "sim_priority >= medium".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultSnapshotTTL       = 5 * time.Minute
	DefaultBroadcastInterval = 5 * time.Second
	DefaultEvaluatePerSec    = 5
	DefaultEvaluateBurst     = 10
	DefaultMaxBodyBytes      = 8 << 20
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, report receiver and WebSocket hub
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates agents and API clients.
	Auth AuthConfig `yaml:"auth"`

	// Snapshot controls in-memory report retention.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// BroadcastInterval is how often the WebSocket hub pushes the snapshot.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`

	// RateLimit bounds the ad-hoc evaluate endpoint.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MaxBodyBytes caps request bodies for report batches and evaluate uploads.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "X-API-Key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// SnapshotConfig controls in-memory report retention.
type SnapshotConfig struct {
	// TTL is how long a source's latest report remains in the store after its
	// last update. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// RateLimitConfig is a token bucket for POST /api/v1/evaluate.
type RateLimitConfig struct {
	EvaluatePerSec float64 `yaml:"evaluate_per_sec"`
	Burst          int     `yaml:"burst"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Snapshot: SnapshotConfig{
				TTL: DefaultSnapshotTTL,
			},
			BroadcastInterval: DefaultBroadcastInterval,
			RateLimit: RateLimitConfig{
				EvaluatePerSec: DefaultEvaluatePerSec,
				Burst:          DefaultEvaluateBurst,
			},
			MaxBodyBytes: DefaultMaxBodyBytes,
			LogLevel:     "info",
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Snapshot.TTL <= 0 {
		return fmt.Errorf("server.snapshot.ttl must be positive")
	}
	if s.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	if s.RateLimit.EvaluatePerSec <= 0 || s.RateLimit.Burst <= 0 {
		return fmt.Errorf("server.rate_limit: evaluate_per_sec and burst must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return fmt.Errorf("server.log_level: %w", err)
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("server.alerts.rules[%d] %q: condition must be \"field op value\"", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("server.alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: unknown type %q: want slack|teams|http", i, w.Type)
		}
	}
	return nil
}

// ParseLogLevel maps a config log level onto slog.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q: want debug|info|warn|error", s)
	}
}
