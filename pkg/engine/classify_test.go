package engine

import "testing"

func TestClassify_Table(t *testing.T) {
	tests := []struct {
		name           string
		sig            Signals
		wantScore      int
		wantPriority   Level
		wantConfidence Level
		wantStability  Level
	}{
		{
			name:           "all favourable",
			sig:            Signals{ChangeRatio: 0.1, VariabilityRatio: 1.0, TrendConsistency: 0.9, TotalRecords: 50},
			wantScore:      100,
			wantPriority:   Low,
			wantConfidence: High,
			wantStability:  High,
		},
		{
			name: "every deduction clamps at 0",
			// 100 - 35 - 30 - 20 - 15 = 0
			sig:            Signals{ChangeRatio: -0.1, VariabilityRatio: 1.5, TrendConsistency: 0.1, TotalRecords: 10},
			wantScore:      0,
			wantPriority:   High,
			wantConfidence: Low,
			wantStability:  Low,
		},
		{
			name: "decrease only",
			// 100 - 35
			sig:            Signals{ChangeRatio: -0.2, VariabilityRatio: 1.0, TrendConsistency: 0.8, TotalRecords: 30},
			wantScore:      65,
			wantPriority:   Low,
			wantConfidence: Medium,
			wantStability:  High,
		},
		{
			name: "variability exactly 1.2 is not increased",
			sig:            Signals{ChangeRatio: -0.2, VariabilityRatio: 1.2, TrendConsistency: 0.8, TotalRecords: 30},
			wantScore:      65,
			wantPriority:   Low,
			wantConfidence: Medium,
			wantStability:  Medium, // 1.2 is not < 1.1
		},
		{
			name: "trend exactly 0.6 is consistent",
			sig:            Signals{ChangeRatio: 0.1, VariabilityRatio: 1.0, TrendConsistency: 0.6, TotalRecords: 20},
			wantScore:      100,
			wantPriority:   Low,
			wantConfidence: Medium,
			wantStability:  Medium,
		},
		{
			name: "variability up without decrease is medium",
			// 100 - 30
			sig:            Signals{ChangeRatio: 0, VariabilityRatio: 1.21, TrendConsistency: 0.9, TotalRecords: 45},
			wantScore:      70,
			wantPriority:   Medium,
			wantConfidence: High,
			wantStability:  Medium,
		},
		{
			name: "inconsistent trend alone is medium",
			// 100 - 20 - 15
			sig:            Signals{ChangeRatio: 0.3, VariabilityRatio: 0.5, TrendConsistency: 0.59, TotalRecords: 19},
			wantScore:      65,
			wantPriority:   Medium,
			wantConfidence: Low,
			wantStability:  Low,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Classify(tc.sig)
			if d.Score != tc.wantScore {
				t.Errorf("Score = %d, want %d", d.Score, tc.wantScore)
			}
			if d.Priority != tc.wantPriority {
				t.Errorf("Priority = %s, want %s", d.Priority, tc.wantPriority)
			}
			if d.Confidence != tc.wantConfidence {
				t.Errorf("Confidence = %s, want %s", d.Confidence, tc.wantConfidence)
			}
			if d.Stability != tc.wantStability {
				t.Errorf("Stability = %s, want %s", d.Stability, tc.wantStability)
			}
		})
	}
}

func TestConfidenceTiers(t *testing.T) {
	tests := []struct {
		records int
		trend   float64
		want    Level
	}{
		{40, 0.7, High},
		{100, 1.0, High},
		{40, 0.69, Medium},
		{39, 0.9, Medium},
		{20, 0.0, Medium},
		{19, 1.0, Low},
		{1, 0, Low},
	}
	for _, tc := range tests {
		got := Classify(Signals{TotalRecords: tc.records, TrendConsistency: tc.trend}).Confidence
		if got != tc.want {
			t.Errorf("Confidence(records=%d, trend=%.2f) = %s, want %s", tc.records, tc.trend, got, tc.want)
		}
	}
}

func TestStabilityTiers(t *testing.T) {
	tests := []struct {
		trend, variability float64
		want               Level
	}{
		{0.75, 1.09, High},
		{1.0, 0, High},
		{0.75, 1.1, Medium},
		{0.74, 0.5, Medium},
		{0.6, 3.0, Medium},
		{0.59, 0.5, Low},
	}
	for _, tc := range tests {
		got := Classify(Signals{TrendConsistency: tc.trend, VariabilityRatio: tc.variability}).Stability
		if got != tc.want {
			t.Errorf("Stability(trend=%.2f, var=%.2f) = %s, want %s", tc.trend, tc.variability, got, tc.want)
		}
	}
}

func TestPriority_FirstMatchWins(t *testing.T) {
	tests := []struct {
		name string
		sig  Signals
		want Level
	}{
		{"decrease and volatile", Signals{ChangeRatio: -0.01, VariabilityRatio: 1.21, TrendConsistency: 0.9}, High},
		{"decrease, volatile, inconsistent", Signals{ChangeRatio: -0.5, VariabilityRatio: 2, TrendConsistency: 0}, High},
		{"zero change is not a decrease", Signals{ChangeRatio: 0, VariabilityRatio: 1.21, TrendConsistency: 0.9}, Medium},
		{"decrease alone", Signals{ChangeRatio: -0.5, VariabilityRatio: 1.0, TrendConsistency: 0.9}, Low},
		{"inconsistent alone", Signals{ChangeRatio: 0.5, VariabilityRatio: 1.0, TrendConsistency: 0.5}, Medium},
		{"nothing", Signals{ChangeRatio: 0.5, VariabilityRatio: 1.0, TrendConsistency: 0.9}, Low},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Priority(tc.sig); got != tc.want {
				t.Errorf("Priority = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassify_Reasons(t *testing.T) {
	bad := Classify(Signals{ChangeRatio: -1, VariabilityRatio: 2, TrendConsistency: 0})
	wantBad := [ReasonCount]string{
		"Recent values decreased compared to baseline",
		"Recent variability increased relative to baseline",
		"Trend direction is inconsistent",
	}
	if bad.Reasons != wantBad {
		t.Errorf("Reasons = %q, want %q", bad.Reasons, wantBad)
	}

	good := Classify(Signals{ChangeRatio: 1, VariabilityRatio: 1, TrendConsistency: 1})
	wantGood := [ReasonCount]string{
		"Recent values did not decrease compared to baseline",
		"Recent variability remains within baseline range",
		"Trend direction remains consistent",
	}
	if good.Reasons != wantGood {
		t.Errorf("Reasons = %q, want %q", good.Reasons, wantGood)
	}
}

func TestScore_Monotonic(t *testing.T) {
	base := Signals{VariabilityRatio: 1.0, TrendConsistency: 0.9, TotalRecords: 50}

	prev := maxScore + 1
	for _, c := range []float64{0.5, 0.1, 0, -0.0001, -0.1, -1, -100} {
		s := base
		s.ChangeRatio = c
		got := Score(s)
		if got > prev {
			t.Errorf("Score rose to %d when change_ratio decreased to %v", got, c)
		}
		prev = got
	}

	prev = maxScore + 1
	for _, v := range []float64{0, 0.5, 1.2, 1.2001, 2, 50} {
		s := base
		s.VariabilityRatio = v
		got := Score(s)
		if got > prev {
			t.Errorf("Score rose to %d when variability_ratio increased to %v", got, v)
		}
		prev = got
	}
}

func TestRecommendedActions(t *testing.T) {
	for _, lvl := range []Level{High, Medium, Low} {
		if got := RecommendedActions(lvl); len(got) != 3 {
			t.Errorf("RecommendedActions(%s) returned %d actions, want 3", lvl, len(got))
		}
	}

	a := RecommendedActions(High)
	if a[0] != "Avoid decisions dependent on this metric" {
		t.Errorf("High first action = %q", a[0])
	}
	a[0] = "mutated"
	if RecommendedActions(High)[0] == "mutated" {
		t.Error("RecommendedActions returned a shared slice")
	}

	if got := RecommendedActions(Level("bogus")); got[0] != "Current state acceptable for continuation" {
		t.Errorf("unknown level actions = %q, want Low actions", got)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"High": High, "medium": Medium, " LOW ": Low} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLevel("urgent"); err == nil {
		t.Error("ParseLevel(urgent) expected error")
	}
	if High.Rank() <= Medium.Rank() || Medium.Rank() <= Low.Rank() || Level("x").Rank() != 0 {
		t.Error("Rank ordering broken")
	}
}
