package engine

import "fmt"

// MaxPerturbationPct bounds both scenario perturbations.
const MaxPerturbationPct = 50

// Default perturbations, matching the initial what-if controls.
const (
	DefaultDropPct        = 10
	DefaultVariabilityPct = 10
)

// ScenarioParams describes a hypothetical perturbation of the signals.
type ScenarioParams struct {
	// DropPct is subtracted, as a fraction, from the change ratio.
	DropPct int `json:"drop_pct" yaml:"drop_pct"`

	// VariabilityPct scales the variability ratio by (1 + pct/100).
	VariabilityPct int `json:"variability_pct" yaml:"variability_pct"`
}

// DefaultScenario returns the 10%/10% perturbation.
func DefaultScenario() ScenarioParams {
	return ScenarioParams{DropPct: DefaultDropPct, VariabilityPct: DefaultVariabilityPct}
}

// Validate checks both perturbations are within [0, MaxPerturbationPct].
func (p ScenarioParams) Validate() error {
	if p.DropPct < 0 || p.DropPct > MaxPerturbationPct {
		return fmt.Errorf("%w: drop_pct %d not in [0, %d]", ErrInvalidScenario, p.DropPct, MaxPerturbationPct)
	}
	if p.VariabilityPct < 0 || p.VariabilityPct > MaxPerturbationPct {
		return fmt.Errorf("%w: variability_pct %d not in [0, %d]", ErrInvalidScenario, p.VariabilityPct, MaxPerturbationPct)
	}
	return nil
}

// Clamp returns p with both perturbations forced into [0, MaxPerturbationPct].
func (p ScenarioParams) Clamp() ScenarioParams {
	return ScenarioParams{
		DropPct:        clampPct(p.DropPct),
		VariabilityPct: clampPct(p.VariabilityPct),
	}
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxPerturbationPct {
		return MaxPerturbationPct
	}
	return v
}

// Scenario is the simulated outcome. Only priority is re-evaluated; score,
// confidence and stability are not simulated.
type Scenario struct {
	Params         ScenarioParams
	SimChange      float64
	SimVariability float64
	SimPriority    Level
}

// perturbed holds the two signals the simulation changes.
type perturbed struct {
	change      float64
	variability float64
}

// The simulated tree has no trend clause: trend is not perturbed, so the
// Medium tier depends on variability alone.
var simulatedPriorityRules = []rule[perturbed]{
	{High, func(p perturbed) bool { return p.change < 0 && p.variability > VariabilityThreshold }},
	{Medium, func(p perturbed) bool { return p.variability > VariabilityThreshold }},
	{Low, always[perturbed]},
}

// Simulate applies params to a copy of the change and variability ratios
// and classifies priority under the perturbation. Callers are expected to
// have validated or clamped params.
func Simulate(s Signals, params ScenarioParams) Scenario {
	p := perturbed{
		change:      s.ChangeRatio - float64(params.DropPct)/100,
		variability: s.VariabilityRatio * (1 + float64(params.VariabilityPct)/100),
	}
	return Scenario{
		Params:         params,
		SimChange:      p.change,
		SimVariability: p.variability,
		SimPriority:    firstMatch(simulatedPriorityRules, p),
	}
}
