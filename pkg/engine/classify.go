package engine

// Thresholds shared by the score deductions, the priority tree and the reasons.
// All comparisons against them are strict.
const (
	VariabilityThreshold = 1.2
	TrendThreshold       = 0.6
	MinRecords           = 20
)

// Thresholds for the Confidence and Stability tiers. These use >= (and < for
// the stability variability bound).
const (
	ConfidenceHighRecords   = 40
	ConfidenceHighTrend     = 0.7
	ConfidenceMediumRecords = 20

	StabilityHighTrend       = 0.75
	StabilityHighVariability = 1.1
	StabilityMediumTrend     = 0.6
)

const (
	maxScore = 100
	minScore = 0

	// ReasonCount is the fixed number of rationale statements in a Decision.
	ReasonCount = 3
)

// Decision is the classified outcome for one series.
type Decision struct {
	// Score is the readiness score in [0, 100].
	Score      int
	Priority   Level
	Confidence Level
	Stability  Level

	// Reasons explain change, variability and trend, always in that order.
	Reasons [ReasonCount]string
}

// rule pairs a level with its condition. Rule lists are evaluated in order
// and the first match wins; every list ends with an unconditional rule.
type rule[T any] struct {
	level Level
	match func(T) bool
}

func firstMatch[T any](rules []rule[T], in T) Level {
	for _, r := range rules {
		if r.match(in) {
			return r.level
		}
	}
	return Low
}

func always[T any](T) bool { return true }

var priorityRules = []rule[Signals]{
	{High, func(s Signals) bool { return s.Decreased() && s.VariabilityIncreased() }},
	{Medium, func(s Signals) bool { return s.VariabilityIncreased() || s.TrendInconsistent() }},
	{Low, always[Signals]},
}

var confidenceRules = []rule[Signals]{
	{High, func(s Signals) bool {
		return s.TotalRecords >= ConfidenceHighRecords && s.TrendConsistency >= ConfidenceHighTrend
	}},
	{Medium, func(s Signals) bool { return s.TotalRecords >= ConfidenceMediumRecords }},
	{Low, always[Signals]},
}

var stabilityRules = []rule[Signals]{
	{High, func(s Signals) bool {
		return s.TrendConsistency >= StabilityHighTrend && s.VariabilityRatio < StabilityHighVariability
	}},
	{Medium, func(s Signals) bool { return s.TrendConsistency >= StabilityMediumTrend }},
	{Low, always[Signals]},
}

// deduction is subtracted from the score when its condition holds. The
// deductions are independent of each other.
type deduction struct {
	points  int
	applies func(Signals) bool
}

var deductions = []deduction{
	{35, Signals.Decreased},
	{30, Signals.VariabilityIncreased},
	{20, Signals.TrendInconsistent},
	{15, Signals.SmallSample},
}

// reason selects one of two statements. The conditions mirror the score
// deductions, not the priority tree.
type reason struct {
	applies func(Signals) bool
	yes, no string
}

var reasons = [ReasonCount]reason{
	{
		applies: Signals.Decreased,
		yes:     "Recent values decreased compared to baseline",
		no:      "Recent values did not decrease compared to baseline",
	},
	{
		applies: Signals.VariabilityIncreased,
		yes:     "Recent variability increased relative to baseline",
		no:      "Recent variability remains within baseline range",
	},
	{
		applies: Signals.TrendInconsistent,
		yes:     "Trend direction is inconsistent",
		no:      "Trend direction remains consistent",
	},
}

// Classify maps signals to a Decision. Score, priority, confidence and
// stability are derived independently and may disagree with each other.
func Classify(s Signals) Decision {
	d := Decision{
		Score:      Score(s),
		Priority:   Priority(s),
		Confidence: firstMatch(confidenceRules, s),
		Stability:  firstMatch(stabilityRules, s),
	}
	for i, r := range reasons {
		if r.applies(s) {
			d.Reasons[i] = r.yes
		} else {
			d.Reasons[i] = r.no
		}
	}
	return d
}

// Score returns the readiness score: 100 minus every applicable deduction,
// clamped to [0, 100].
func Score(s Signals) int {
	score := maxScore
	for _, d := range deductions {
		if d.applies(s) {
			score -= d.points
		}
	}
	return clampScore(score)
}

// Priority runs the priority rule list against s.
func Priority(s Signals) Level {
	return firstMatch(priorityRules, s)
}

func clampScore(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

var actions = map[Level][]string{
	High: {
		"Avoid decisions dependent on this metric",
		"Increase monitoring frequency",
		"Reduce exposure until stability improves",
	},
	Medium: {
		"Monitor metric more frequently",
		"Delay irreversible decisions",
		"Wait for trend stabilization",
	},
	Low: {
		"Current state acceptable for continuation",
		"Maintain regular monitoring",
		"No immediate adjustment required",
	},
}

// RecommendedActions returns the follow-up actions for a priority tier.
// Unknown levels get the Low actions.
func RecommendedActions(priority Level) []string {
	a, ok := actions[priority]
	if !ok {
		a = actions[Low]
	}
	out := make([]string, len(a))
	copy(out, a)
	return out
}
