package types

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/decisionstack/decisionstack/pkg/engine"
)

func TestReportJSON_NonFiniteRatiosAreNull(t *testing.T) {
	res, err := engine.Evaluate([]float64{5e-324, 5e-324, 5e-324, 5e-324, 1, 1, 1}, engine.DefaultScenario())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	r := NewReport(Meta{SourceID: "tiny"}, res, time.Now())

	b, err := json.Marshal(Batch{Reports: []Report{r}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"change_ratio":null`, `"sim_change":null`, `"variability_ratio":0`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("encoded batch missing %s: %s", want, b)
		}
	}

	var got Batch
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	back := got.Reports[0]
	if !math.IsNaN(back.Signals.ChangeRatio) || !math.IsNaN(back.Scenario.SimChange) {
		t.Errorf("null ratios decoded as %v/%v, want NaN", back.Signals.ChangeRatio, back.Scenario.SimChange)
	}
	if back.Signals.VariabilityRatio != 0 || back.Scenario.SimPriority != string(res.Scenario.SimPriority) {
		t.Errorf("finite fields changed: %+v %+v", back.Signals, back.Scenario)
	}
	if back.Signals.BaselineMean == nil || *back.Signals.BaselineMean != 5e-324 {
		t.Errorf("BaselineMean = %v, want 5e-324", back.Signals.BaselineMean)
	}
	if back.Score != 65 || back.Priority != "Medium" {
		t.Errorf("decision = %d/%s, want 65/Medium", back.Score, back.Priority)
	}
}

func TestSignalsJSON(t *testing.T) {
	mean := math.Inf(1)
	tests := []struct {
		name string
		in   Signals
		want string
	}{
		{
			"finite",
			Signals{ChangeRatio: -0.2, VariabilityRatio: 1.5, TrendConsistency: 0.5},
			`{"change_ratio":-0.2,"variability_ratio":1.5,"trend_consistency":0.5,"baseline_mean":null,"recent_mean":null,"baseline_std":null,"recent_std":null}`,
		},
		{
			"nan and inf",
			Signals{ChangeRatio: math.Inf(-1), VariabilityRatio: math.NaN(), BaselineMean: &mean},
			`{"change_ratio":null,"variability_ratio":null,"trend_consistency":0,"baseline_mean":null,"recent_mean":null,"baseline_std":null,"recent_std":null}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Marshal() = %s\nwant       %s", b, tt.want)
			}
		})
	}
}

func TestSignalsJSON_MissingRatiosDecodeAsNaN(t *testing.T) {
	var s Signals
	if err := json.Unmarshal([]byte(`{"trend_consistency":0.75}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !math.IsNaN(s.ChangeRatio) || !math.IsNaN(s.VariabilityRatio) {
		t.Errorf("missing ratios = %v/%v, want NaN", s.ChangeRatio, s.VariabilityRatio)
	}
	if s.TrendConsistency != 0.75 {
		t.Errorf("TrendConsistency = %v, want 0.75", s.TrendConsistency)
	}
}
