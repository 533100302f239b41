package types

import "time"

// Report is one evaluated decision for a source, as shipped by the agent and
// served by the API.
type Report struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	SourceType  string    `json:"source_type,omitempty"`
	Title       string    `json:"title,omitempty"`
	Metric      string    `json:"metric"`
	GeneratedAt time.Time `json:"generated_at"`

	// Context counts.
	TotalRecords int `json:"total_records"`
	RecentN      int `json:"recent_n"`
	BaselineN    int `json:"baseline_n"`

	Score      int      `json:"score"`
	Priority   string   `json:"priority"`
	Confidence string   `json:"confidence"`
	Stability  string   `json:"stability"`
	Reasons    []string `json:"reasons"`

	Signals  Signals  `json:"signals"`
	Scenario Scenario `json:"scenario"`
	Actions  []string `json:"actions"`

	// Series is the evaluated metric column, omitted when the agent is
	// configured not to ship raw values.
	Series []float64 `json:"series,omitempty"`

	// Error is set instead of the decision fields when the source could not
	// be evaluated (fetch failure, no numeric data, unknown metric).
	Error string `json:"error,omitempty"`
}

// OK reports whether r carries a decision rather than an error.
func (r Report) OK() bool { return r.Error == "" }

// Signals carries the derived ratios. Means and deviations are pointers so
// undefined statistics encode as null. Non-finite ratios also encode as null
// and decode as NaN; see MarshalJSON.
type Signals struct {
	ChangeRatio      float64  `json:"change_ratio"`
	VariabilityRatio float64  `json:"variability_ratio"`
	TrendConsistency float64  `json:"trend_consistency"`
	BaselineMean     *float64 `json:"baseline_mean"`
	RecentMean       *float64 `json:"recent_mean"`
	BaselineStd      *float64 `json:"baseline_std"`
	RecentStd        *float64 `json:"recent_std"`
}

// Scenario is the what-if outcome next to the current priority.
type Scenario struct {
	DropPct        int     `json:"drop_pct"`
	VariabilityPct int     `json:"variability_pct"`
	SimChange      float64 `json:"sim_change"`
	SimVariability float64 `json:"sim_variability"`
	SimPriority    string  `json:"sim_priority"`
}

// Batch is the body of POST /api/v1/reports.
type Batch struct {
	AgentID string   `json:"agent_id,omitempty"`
	Reports []Report `json:"reports"`
}
