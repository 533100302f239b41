package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decisionstack/decisionstack/pkg/engine"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
agent:
  server_endpoint: "http://localhost:8080"
  evaluate_interval: 30s
  ship_interval: 5s
  buffer_size: 50
  history_size: 120
  scenario:
    drop_pct: 20
    variability_pct: 5
  sources:
    - id: sales
      type: file
      path: ./data/sales.csv
      metric: revenue
    - id: api
      type: prometheus
      endpoint: "http://localhost:9090/metrics"
      metric: http_requests_total
      auth:
        mode: bearer
        token_env: PROM_TOKEN
`
	cfg := loadFromString(t, yaml)

	if cfg.Agent.ServerEndpoint != "http://localhost:8080" {
		t.Errorf("server_endpoint: got %q", cfg.Agent.ServerEndpoint)
	}
	if cfg.Agent.EvaluateInterval != 30*time.Second {
		t.Errorf("evaluate_interval: got %v", cfg.Agent.EvaluateInterval)
	}
	if cfg.Agent.BufferSize != 50 {
		t.Errorf("buffer_size: got %d", cfg.Agent.BufferSize)
	}
	if cfg.Agent.HistorySize != 120 {
		t.Errorf("history_size: got %d", cfg.Agent.HistorySize)
	}
	want := engine.ScenarioParams{DropPct: 20, VariabilityPct: 5}
	if cfg.Agent.Scenario != want {
		t.Errorf("scenario: got %+v, want %+v", cfg.Agent.Scenario, want)
	}
	if len(cfg.Agent.Sources) != 2 {
		t.Fatalf("sources: got %d, want 2", len(cfg.Agent.Sources))
	}
	src := cfg.Agent.Sources[0]
	if src.ID != "sales" || src.Type != SourceFile || src.Metric != "revenue" {
		t.Errorf("source[0]: got %+v", src)
	}
	if src.Location() != "./data/sales.csv" {
		t.Errorf("Location(): got %q", src.Location())
	}
	if cfg.Agent.Sources[1].Location() != "http://localhost:9090/metrics" {
		t.Errorf("Location(): got %q", cfg.Agent.Sources[1].Location())
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
agent:
  sources:
    - id: sales
      type: file
      path: sales.csv
`
	cfg := loadFromString(t, yaml)

	if cfg.Agent.EvaluateInterval != DefaultEvaluateInterval {
		t.Errorf("default evaluate_interval: got %v, want %v", cfg.Agent.EvaluateInterval, DefaultEvaluateInterval)
	}
	if cfg.Agent.ShipInterval != DefaultShipInterval {
		t.Errorf("default ship_interval: got %v, want %v", cfg.Agent.ShipInterval, DefaultShipInterval)
	}
	if cfg.Agent.BufferSize != DefaultBufferSize {
		t.Errorf("default buffer_size: got %d, want %d", cfg.Agent.BufferSize, DefaultBufferSize)
	}
	if cfg.Agent.HistorySize != DefaultHistorySize {
		t.Errorf("default history_size: got %d, want %d", cfg.Agent.HistorySize, DefaultHistorySize)
	}
	if cfg.Agent.Scenario != engine.DefaultScenario() {
		t.Errorf("default scenario: got %+v", cfg.Agent.Scenario)
	}
	if cfg.Agent.Sources[0].Timeout != DefaultFetchTimeout {
		t.Errorf("default timeout: got %v, want %v", cfg.Agent.Sources[0].Timeout, DefaultFetchTimeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown source type",
			yaml: `
agent:
  sources:
    - id: mystery
      type: kafka
      endpoint: "localhost:9092"
`,
			wantErr: "unknown type",
		},
		{
			name: "file without path",
			yaml: `
agent:
  sources:
    - id: sales
      type: file
`,
			wantErr: "path is required",
		},
		{
			name: "http without endpoint",
			yaml: `
agent:
  sources:
    - id: remote
      type: http
`,
			wantErr: "endpoint is required",
		},
		{
			name: "duplicate id",
			yaml: `
agent:
  sources:
    - {id: a, type: file, path: a.csv}
    - {id: a, type: file, path: b.csv}
`,
			wantErr: "duplicate id",
		},
		{
			name: "unknown format",
			yaml: `
agent:
  sources:
    - {id: a, type: file, path: a.xlsx, format: xlsx}
`,
			wantErr: "unsupported format",
		},
		{
			name: "unknown auth mode",
			yaml: `
agent:
  sources:
    - id: remote
      type: http
      endpoint: "http://localhost/data.csv"
      auth:
        mode: magictoken
`,
			wantErr: "unknown auth mode",
		},
		{
			name: "mtls without cert",
			yaml: `
agent:
  server_auth:
    mode: mtls
`,
			wantErr: "cert_file",
		},
		{
			name: "scenario out of range",
			yaml: `
agent:
  scenario:
    drop_pct: 80
`,
			wantErr: "drop_pct",
		},
		{
			name: "bad log level",
			yaml: `
agent:
  log_level: loud
`,
			wantErr: "log_level",
		},
		{
			name: "zero buffer",
			yaml: `
agent:
  buffer_size: 0
`,
			wantErr: "buffer_size",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_ScenarioErrorWrapsSentinel(t *testing.T) {
	_, err := loadStringErr(t, "agent:\n  scenario:\n    variability_pct: -1\n")
	if !errors.Is(err, engine.ErrInvalidScenario) {
		t.Errorf("error = %v, want ErrInvalidScenario", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAuthConfig_Secrets(t *testing.T) {
	t.Setenv("TEST_API_KEY", "supersecret")
	t.Setenv("TEST_BEARER_TOKEN", "mytoken")
	t.Setenv("TEST_PASSWORD", "hunter2")

	a := AuthConfig{KeyEnv: "TEST_API_KEY", TokenEnv: "TEST_BEARER_TOKEN", PasswordEnv: "TEST_PASSWORD"}
	if got := a.Key(); got != "supersecret" {
		t.Errorf("Key(): got %q", got)
	}
	if got := a.Token(); got != "mytoken" {
		t.Errorf("Token(): got %q", got)
	}
	if got := a.Password(); got != "hunter2" {
		t.Errorf("Password(): got %q", got)
	}
	if got := (AuthConfig{}).Key(); got != "" {
		t.Errorf("Key() with no KeyEnv: got %q, want empty", got)
	}
}

func TestAuthConfig_EffectiveHeader(t *testing.T) {
	if got := (AuthConfig{}).EffectiveHeader(); got != "X-API-Key" {
		t.Errorf("default header: got %q", got)
	}
	if got := (AuthConfig{Header: "X-Token"}).EffectiveHeader(); got != "X-Token" {
		t.Errorf("custom header: got %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLogLevel(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestWatch_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	write("agent:\n  buffer_size: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	write("agent:\n  buffer_size: 0\n") // invalid, skipped
	write("agent:\n  buffer_size: 42\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Agent.BufferSize == 42 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Watch returned %v", err)
				}
				return
			}
			if c.Agent.BufferSize <= 0 {
				t.Fatalf("onChange received invalid config %+v", c.Agent)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
