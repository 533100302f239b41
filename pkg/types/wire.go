package types

import (
	"encoding/json"
	"math"
)

// JSON has no NaN or Inf. A ratio over a near-zero baseline can overflow to
// ±Inf, so non-finite floats encode as null and null decodes back to NaN.
// Means and deviations are already pointers and decode null to nil.

type signalsJSON struct {
	ChangeRatio      *float64 `json:"change_ratio"`
	VariabilityRatio *float64 `json:"variability_ratio"`
	TrendConsistency *float64 `json:"trend_consistency"`
	BaselineMean     *float64 `json:"baseline_mean"`
	RecentMean       *float64 `json:"recent_mean"`
	BaselineStd      *float64 `json:"baseline_std"`
	RecentStd        *float64 `json:"recent_std"`
}

// MarshalJSON encodes non-finite values as null.
func (s Signals) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalsJSON{
		ChangeRatio:      Finite(s.ChangeRatio),
		VariabilityRatio: Finite(s.VariabilityRatio),
		TrendConsistency: Finite(s.TrendConsistency),
		BaselineMean:     finitePtr(s.BaselineMean),
		RecentMean:       finitePtr(s.RecentMean),
		BaselineStd:      finitePtr(s.BaselineStd),
		RecentStd:        finitePtr(s.RecentStd),
	})
}

// UnmarshalJSON decodes null or missing ratios as NaN.
func (s *Signals) UnmarshalJSON(b []byte) error {
	var w signalsJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Signals{
		ChangeRatio:      orNaN(w.ChangeRatio),
		VariabilityRatio: orNaN(w.VariabilityRatio),
		TrendConsistency: orNaN(w.TrendConsistency),
		BaselineMean:     w.BaselineMean,
		RecentMean:       w.RecentMean,
		BaselineStd:      w.BaselineStd,
		RecentStd:        w.RecentStd,
	}
	return nil
}

type scenarioJSON struct {
	DropPct        int      `json:"drop_pct"`
	VariabilityPct int      `json:"variability_pct"`
	SimChange      *float64 `json:"sim_change"`
	SimVariability *float64 `json:"sim_variability"`
	SimPriority    string   `json:"sim_priority"`
}

// MarshalJSON encodes non-finite simulated ratios as null.
func (s Scenario) MarshalJSON() ([]byte, error) {
	return json.Marshal(scenarioJSON{
		DropPct:        s.DropPct,
		VariabilityPct: s.VariabilityPct,
		SimChange:      Finite(s.SimChange),
		SimVariability: Finite(s.SimVariability),
		SimPriority:    s.SimPriority,
	})
}

// UnmarshalJSON decodes null or missing simulated ratios as NaN.
func (s *Scenario) UnmarshalJSON(b []byte) error {
	var w scenarioJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Scenario{
		DropPct:        w.DropPct,
		VariabilityPct: w.VariabilityPct,
		SimChange:      orNaN(w.SimChange),
		SimVariability: orNaN(w.SimVariability),
		SimPriority:    w.SimPriority,
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns a pointer to v, or nil when v is not finite.
func Finite(v float64) *float64 {
	if !IsFinite(v) {
		return nil
	}
	return &v
}

func finitePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return Finite(*p)
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
