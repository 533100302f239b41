package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/decisionstack/decisionstack/pkg/engine"
)

// Meta identifies where a Result came from.
type Meta struct {
	SourceID   string
	SourceType string
	Title      string

	// IncludeSeries copies the evaluated values into the report.
	IncludeSeries bool
}

// NewReport converts an engine.Result into the wire Report shipped to the
// server. Each report gets a fresh ID.
func NewReport(m Meta, res engine.Result, now time.Time) Report {
	d := res.Decision
	r := Report{
		ID:           uuid.NewString(),
		SourceID:     m.SourceID,
		SourceType:   m.SourceType,
		Title:        m.Title,
		Metric:       res.Metric,
		GeneratedAt:  now.UTC(),
		TotalRecords: res.Signals.TotalRecords,
		RecentN:      res.RecentN,
		BaselineN:    res.BaselineN,
		Score:        d.Score,
		Priority:     string(d.Priority),
		Confidence:   string(d.Confidence),
		Stability:    string(d.Stability),
		Reasons:      d.Reasons[:],
		Signals: Signals{
			ChangeRatio:      res.Signals.ChangeRatio,
			VariabilityRatio: res.Signals.VariabilityRatio,
			TrendConsistency: res.Signals.TrendConsistency,
			BaselineMean:     statPtr(res.Signals.BaselineMean),
			RecentMean:       statPtr(res.Signals.RecentMean),
			BaselineStd:      statPtr(res.Signals.BaselineStd),
			RecentStd:        statPtr(res.Signals.RecentStd),
		},
		Scenario: Scenario{
			DropPct:        res.Scenario.Params.DropPct,
			VariabilityPct: res.Scenario.Params.VariabilityPct,
			SimChange:      res.Scenario.SimChange,
			SimVariability: res.Scenario.SimVariability,
			SimPriority:    string(res.Scenario.SimPriority),
		},
		Actions: res.Actions,
	}
	if m.IncludeSeries {
		r.Series = res.Series
	}
	return r
}

// ErrorReport records that a source could not be evaluated this cycle.
func ErrorReport(m Meta, err error, now time.Time) Report {
	return Report{
		ID:          uuid.NewString(),
		SourceID:    m.SourceID,
		SourceType:  m.SourceType,
		Title:       m.Title,
		GeneratedAt: now.UTC(),
		Error:       err.Error(),
	}
}

func statPtr(s engine.Stat) *float64 {
	if !s.Valid {
		return nil
	}
	return Finite(s.Value)
}
