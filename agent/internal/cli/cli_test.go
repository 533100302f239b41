package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

const salesCSV = "week,region,revenue\n" +
	"1,n,10\n2,n,10\n3,n,10\n4,n,10\n5,n,10\n6,n,9\n7,n,9\n8,n,9\n9,n,9\n10,n,8\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEvaluate_Text(t *testing.T) {
	path := writeFile(t, "weekly_sales.csv", salesCSV)

	out, err := run(t, "", "evaluate", "--file", path, "--metric", "revenue")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	for _, want := range []string{
		"Weekly Sales: revenue",
		"10 records (baseline 7, recent 3)",
		"30 / 100",
		"Recent values decreased compared to baseline",
		"Medium -> High",
		"Monitor metric more frequently",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluate_JSON(t *testing.T) {
	path := writeFile(t, "sales.csv", salesCSV)

	out, err := run(t, "", "evaluate", "-f", path, "-o", "json", "--drop", "0", "--variability", "0", "--include-series")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	var r types.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	// Default metric is the first numeric column.
	if r.Metric != "week" {
		t.Errorf("Metric = %q, want week", r.Metric)
	}
	if r.Scenario.SimPriority != r.Priority {
		t.Errorf("zero perturbation: SimPriority %q != Priority %q", r.Scenario.SimPriority, r.Priority)
	}
	if len(r.Series) != 10 {
		t.Errorf("Series len = %d, want 10", len(r.Series))
	}
}

func TestEvaluate_Stdin(t *testing.T) {
	out, err := run(t, `[{"v": 1}, {"v": 2}, {"v": 3}]`, "evaluate", "--file", "-", "--format", "json", "-o", "json")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	var r types.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", r.TotalRecords)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	path := writeFile(t, "sales.csv", salesCSV)
	textOnly := writeFile(t, "names.csv", "name\nann\n")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"missing file flag", []string{"evaluate"}, nil},
		{"drop out of range", []string{"evaluate", "-f", path, "--drop", "60"}, engine.ErrInvalidScenario},
		{"negative variability", []string{"evaluate", "-f", path, "--variability", "-5"}, engine.ErrInvalidScenario},
		{"unknown metric", []string{"evaluate", "-f", path, "-m", "region"}, engine.ErrUnknownMetric},
		{"no numeric data", []string{"evaluate", "-f", textOnly}, engine.ErrNoNumericData},
		{"bad output", []string{"evaluate", "-f", path, "-o", "xml"}, nil},
		{"bad format", []string{"evaluate", "-f", path, "--format", "xlsx"}, nil},
		{"missing path", []string{"evaluate", "-f", filepath.Join(t.TempDir(), "nope.csv")}, os.ErrNotExist},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, "", tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunWatch_PrintsReportsWithoutServer(t *testing.T) {
	data := writeFile(t, "sales.csv", salesCSV)
	cfgPath := writeFile(t, "config.yaml", `
agent:
  evaluate_interval: 1h
  sources:
    - id: sales
      type: file
      path: `+data+`
      metric: revenue
`)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := runWatch(ctx, cfgPath, &out); err != nil {
		t.Fatalf("runWatch error = %v", err)
	}

	line, _, _ := strings.Cut(out.String(), "\n")
	var r types.Report
	if err := json.Unmarshal([]byte(line), &r); err != nil {
		t.Fatalf("decode report line %q: %v", line, err)
	}
	if r.SourceID != "sales" || r.Score != 30 {
		t.Errorf("report = %s/%d, want sales/30", r.SourceID, r.Score)
	}
}

func TestRunWatch_BadConfig(t *testing.T) {
	cfgPath := writeFile(t, "config.yaml", "agent:\n  buffer_size: -1\n")
	if err := runWatch(context.Background(), cfgPath, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestLoadEnv(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}

	p := writeFile(t, ".env", "DECIDE_TEST_SECRET=from-dotenv\n")
	t.Setenv("DECIDE_TEST_SECRET", "")
	os.Unsetenv("DECIDE_TEST_SECRET")
	if err := loadEnv(p); err != nil {
		t.Fatalf("loadEnv error = %v", err)
	}
	if got := os.Getenv("DECIDE_TEST_SECRET"); got != "from-dotenv" {
		t.Errorf("DECIDE_TEST_SECRET = %q, want from-dotenv", got)
	}
}
