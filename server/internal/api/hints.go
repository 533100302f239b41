package api

import (
	"fmt"
	"math"
	"sort"

	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// DecisionHint is one plain-language insight about a report. Dashboards show
// these as chips next to the decision; Detail is the longer explanation.
type DecisionHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	// Value is the number the hint is about, when there is one.
	Value *float64 `json:"value,omitempty"`
}

var hintOrder = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeHints derives hints from a report, critical first.
func computeHints(r types.Report) []DecisionHint {
	if !r.OK() {
		return []DecisionHint{{
			Key:   "evaluation_failed",
			Level: "critical",
			Title: "Can't evaluate source",
			Detail: fmt.Sprintf(
				"The last evaluation of this source failed with %q. "+
					"Check that the source is reachable and that the selected metric "+
					"is a numeric column with at least one value.", r.Error),
		}}
	}

	var hints []DecisionHint
	sig := r.Signals

	if sig.ChangeRatio < 0 {
		v := sig.ChangeRatio * 100
		amount := fmt.Sprintf("%.1f%%", math.Abs(v))
		title := amount + " below baseline"
		if !types.IsFinite(v) {
			amount = "immeasurably"
			title = "Collapsed from a near-zero baseline"
		}
		level := "warning"
		if engine.Level(r.Priority) == engine.High {
			level = "critical"
		}
		hints = append(hints, DecisionHint{
			Key:   "decline",
			Level: level,
			Title: title,
			Detail: fmt.Sprintf(
				"The recent window of %s averages %s lower than the baseline window. "+
					"A falling metric costs 35 points of readiness and, combined with "+
					"rising variability, makes this a High priority.", metricName(r), amount),
			Value: types.Finite(v),
		})
	}

	if sig.VariabilityRatio > engine.VariabilityThreshold {
		v := sig.VariabilityRatio
		hints = append(hints, DecisionHint{
			Key:   "variability",
			Level: "warning",
			Title: fmt.Sprintf("Variability x%.2f", v),
			Detail: fmt.Sprintf(
				"Recent values spread %.2f times as widely as the baseline. "+
					"Above %.1f the metric is treated as unstable and decisions based "+
					"on it should wait.", v, engine.VariabilityThreshold),
			Value: types.Finite(v),
		})
	}

	if sig.TrendConsistency < engine.TrendThreshold {
		v := sig.TrendConsistency * 100
		hints = append(hints, DecisionHint{
			Key:   "trend",
			Level: "info",
			Title: "Mixed trend direction",
			Detail: fmt.Sprintf(
				"Step directions across the series have a net agreement of %.0f%%: "+
					"rises and falls largely cancel out. A consistent trend needs at least %.0f%%.",
				v, engine.TrendThreshold*100),
			Value: &v,
		})
	}

	if r.TotalRecords < engine.MinRecords {
		v := float64(r.TotalRecords)
		hints = append(hints, DecisionHint{
			Key:   "small_sample",
			Level: "info",
			Title: fmt.Sprintf("Only %d records", r.TotalRecords),
			Detail: fmt.Sprintf(
				"Fewer than %d values were available, so confidence stays Low. "+
					"Collect more history before relying on this decision.", engine.MinRecords),
			Value: &v,
		})
	}

	if engine.Level(r.Scenario.SimPriority).Rank() > engine.Level(r.Priority).Rank() {
		hints = append(hints, DecisionHint{
			Key:   "fragile",
			Level: "warning",
			Title: "Fragile under what-if",
			Detail: fmt.Sprintf(
				"A further %d%% drop with %d%% more variability would raise priority "+
					"from %s to %s.", r.Scenario.DropPct, r.Scenario.VariabilityPct,
				r.Priority, r.Scenario.SimPriority),
		})
	}

	if len(hints) == 0 {
		score := float64(r.Score)
		hints = append(hints, DecisionHint{
			Key:   "ready",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf(
				"Readiness for %s is %.0f/100. "+
					"No decline, variability is within range and the trend is consistent.",
				metricName(r), score),
			Value: &score,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool { return hintOrder[hints[i].Level] < hintOrder[hints[j].Level] })
	return hints
}

func metricName(r types.Report) string {
	if r.Metric == "" {
		return "this metric"
	}
	return r.Metric
}
