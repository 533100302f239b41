package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/decisionstack/decisionstack/pkg/dataset"
	"github.com/decisionstack/decisionstack/pkg/engine"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEvaluateInterval = time.Minute
	DefaultShipInterval     = 15 * time.Second
	DefaultBufferSize       = 100
	DefaultHistorySize      = 500
	DefaultFetchTimeout     = 10 * time.Second
	DefaultLogLevel         = "info"
)

// Config is the agent configuration. The `server:` key in the same file is
// ignored by the agent binary.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerEndpoint is the base URL of decisionstack-server
	// (e.g. http://localhost:8080). Empty disables shipping.
	ServerEndpoint string `yaml:"server_endpoint"`

	// EvaluateInterval controls how often each source is fetched and evaluated.
	EvaluateInterval time.Duration `yaml:"evaluate_interval"`

	// ShipInterval controls how often buffered reports are sent to the server.
	ShipInterval time.Duration `yaml:"ship_interval"`

	// BufferSize is the maximum number of reports held in memory when
	// the server is unreachable.
	BufferSize int `yaml:"buffer_size"`

	// HistorySize bounds the rows kept per accumulating source.
	HistorySize int `yaml:"history_size"`

	// IncludeSeries ships the evaluated metric values with each report.
	IncludeSeries bool `yaml:"include_series"`

	// Scenario is the what-if perturbation applied to every evaluation.
	Scenario engine.ScenarioParams `yaml:"scenario"`

	// Sources is the list of datasets to evaluate.
	Sources []Source `yaml:"sources"`

	// ServerAuth configures how the agent authenticates to decisionstack-server.
	ServerAuth AuthConfig `yaml:"server_auth"`

	// ServerTLS holds TLS dial options for the server connection.
	ServerTLS TLSConfig `yaml:"server_tls"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// Source types.
const (
	SourceFile       = "file"
	SourceHTTP       = "http"
	SourcePrometheus = "prometheus"
)

// Source describes one evaluated dataset.
type Source struct {
	// ID is a unique, human-readable identifier for this source.
	ID string `yaml:"id"`

	// Type is one of: file | http | prometheus.
	Type string `yaml:"type"`

	// Path is the local file read by file sources.
	Path string `yaml:"path"`

	// Endpoint is the URL fetched by http and prometheus sources.
	Endpoint string `yaml:"endpoint"`

	// Format overrides format detection: csv | json | yaml | prometheus.
	Format string `yaml:"format"`

	// Metric is the column to evaluate. Empty selects the first numeric column.
	Metric string `yaml:"metric"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the agent authenticates to this source.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// Location returns Path for file sources and Endpoint otherwise.
func (s Source) Location() string {
	if s.Type == SourceFile {
		return s.Path
	}
	return s.Endpoint
}

// AuthConfig specifies the authentication mode for a source or the server.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header the API key is sent in (default X-API-Key).
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EffectiveHeader returns the configured API key header, or "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			EvaluateInterval: DefaultEvaluateInterval,
			ShipInterval:     DefaultShipInterval,
			BufferSize:       DefaultBufferSize,
			HistorySize:      DefaultHistorySize,
			Scenario:         engine.DefaultScenario(),
			LogLevel:         DefaultLogLevel,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := &cfg.Agent
	if a.EvaluateInterval <= 0 {
		return fmt.Errorf("agent.evaluate_interval must be positive")
	}
	if a.ShipInterval <= 0 {
		return fmt.Errorf("agent.ship_interval must be positive")
	}
	if a.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	if a.HistorySize <= 0 {
		return fmt.Errorf("agent.history_size must be positive")
	}
	if err := a.Scenario.Validate(); err != nil {
		return fmt.Errorf("agent.scenario: %w", err)
	}
	if _, err := ParseLogLevel(a.LogLevel); err != nil {
		return fmt.Errorf("agent.log_level: %w", err)
	}
	if err := validateAuth(a.ServerAuth); err != nil {
		return fmt.Errorf("agent.server_auth: %w", err)
	}

	seen := make(map[string]bool, len(a.Sources))
	for i := range a.Sources {
		src := &a.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = true

		switch src.Type {
		case SourceFile:
			if src.Path == "" {
				return fmt.Errorf("sources[%d] %q: path is required", i, src.ID)
			}
		case SourceHTTP, SourcePrometheus:
			if src.Endpoint == "" {
				return fmt.Errorf("sources[%d] %q: endpoint is required", i, src.ID)
			}
		default:
			return fmt.Errorf("sources[%d] %q: unknown type %q: want file|http|prometheus", i, src.ID, src.Type)
		}

		if _, err := dataset.ParseFormat(src.Format); err != nil {
			return fmt.Errorf("sources[%d] %q: %w", i, src.ID, err)
		}
		if src.Timeout == 0 {
			src.Timeout = DefaultFetchTimeout
		}
		if src.Timeout < 0 {
			return fmt.Errorf("sources[%d] %q: timeout must not be negative", i, src.ID)
		}
		if err := validateAuth(src.Auth); err != nil {
			return fmt.Errorf("sources[%d] %q: %w", i, src.ID, err)
		}
	}
	return nil
}

func validateAuth(a AuthConfig) error {
	switch a.Mode {
	case "apikey", "bearer", "basic", "none", "":
	case "mtls":
		if a.CertFile == "" || a.KeyFile == "" {
			return fmt.Errorf("mtls requires cert_file and key_file")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", a.Mode)
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
