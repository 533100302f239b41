package engine

import "errors"

// Errors that make a decision impossible. They are returned to the caller
// as-is; no partial Result accompanies them.
var (
	// ErrEmptyDataset is returned when the series has no values.
	ErrEmptyDataset = errors.New("engine: no data")

	// ErrNoNumericData is returned when a dataset has no numeric column.
	ErrNoNumericData = errors.New("engine: no numeric columns available for decision evaluation")

	// ErrUnknownMetric is returned when the selected metric is not one of the
	// dataset's numeric columns.
	ErrUnknownMetric = errors.New("engine: metric is not a numeric column")

	// ErrInvalidScenario is returned by ScenarioParams.Validate for
	// perturbations outside [0, MaxPerturbationPct].
	ErrInvalidScenario = errors.New("engine: scenario perturbation out of range")
)
