package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// condition is a parsed "field op value" expression.
type condition struct {
	field     string
	op        string
	threshold float64
	level     bool // compare level ranks rather than raw numbers
}

var operators = map[string]bool{">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true}

// parseCondition compiles expressions such as
//
//	score < 50
//	variability_ratio > 1.5
//	records < 20
//	priority == high
//	sim_priority >= medium
func parseCondition(s string) (condition, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("condition %q: want \"field op value\"", s)
	}
	c := condition{field: parts[0], op: parts[1]}
	if !operators[c.op] {
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", s, c.op)
	}

	switch {
	case isLevelField(c.field):
		lvl, err := engine.ParseLevel(parts[2])
		if err != nil {
			return condition{}, fmt.Errorf("condition %q: %w", s, err)
		}
		c.level = true
		c.threshold = float64(lvl.Rank())
	case isNumericField(c.field):
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return condition{}, fmt.Errorf("condition %q: threshold: %w", s, err)
		}
		c.threshold = v
	default:
		return condition{}, fmt.Errorf("condition %q: unknown field %q", s, c.field)
	}
	return c, nil
}

// eval reports whether c holds for r and the value that was compared. Fields
// the report leaves undefined never fire.
func (c condition) eval(r types.Report) (bool, float64) {
	var (
		v  float64
		ok bool
	)
	if c.level {
		v, ok = levelField(c.field, r)
	} else {
		v, ok = numericField(c.field, r)
		ok = ok && types.IsFinite(v)
	}
	if !ok {
		return false, 0
	}
	return compareFloat(v, c.op, c.threshold), v
}

func isLevelField(f string) bool {
	switch f {
	case "priority", "confidence", "stability", "sim_priority":
		return true
	}
	return false
}

func isNumericField(f string) bool {
	_, ok := numericField(f, types.Report{})
	return ok || f == "baseline_mean" || f == "recent_mean"
}

// levelField returns the rank of a level field; unknown level strings are undefined.
func levelField(field string, r types.Report) (float64, bool) {
	var s string
	switch field {
	case "priority":
		s = r.Priority
	case "confidence":
		s = r.Confidence
	case "stability":
		s = r.Stability
	case "sim_priority":
		s = r.Scenario.SimPriority
	}
	rank := engine.Level(s).Rank()
	return float64(rank), rank > 0
}

// numericField maps a field name to its value in the report.
func numericField(field string, r types.Report) (float64, bool) {
	switch field {
	case "score":
		return float64(r.Score), true
	case "change_ratio":
		return r.Signals.ChangeRatio, true
	case "variability_ratio":
		return r.Signals.VariabilityRatio, true
	case "trend_consistency":
		return r.Signals.TrendConsistency, true
	case "records":
		return float64(r.TotalRecords), true
	case "baseline_mean":
		return deref(r.Signals.BaselineMean)
	case "recent_mean":
		return deref(r.Signals.RecentMean)
	default:
		return 0, false
	}
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
