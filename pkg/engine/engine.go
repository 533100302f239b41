package engine

import (
	"fmt"
	"slices"
)

// Dataset is the tabular input the engine reads a metric from.
type Dataset interface {
	// NumericColumns lists the numeric column names in table order.
	NumericColumns() []string

	// Column returns the named column with missing values removed.
	Column(name string) ([]float64, error)
}

// Result is one complete evaluation.
type Result struct {
	// Metric is the evaluated column name; empty when Evaluate was called
	// with a bare series.
	Metric string

	// Series is a copy of the evaluated values, for plotting.
	Series []float64

	RecentN   int
	BaselineN int

	Signals  Signals
	Decision Decision
	Scenario Scenario

	// Actions are the recommended follow-ups for Decision.Priority.
	Actions []string
}

// Evaluate runs split, signal calculation, classification and simulation
// over series. It returns ErrEmptyDataset for an empty series and never
// fails otherwise. series is not modified or retained.
func Evaluate(series []float64, params ScenarioParams) (Result, error) {
	w, err := Split(series)
	if err != nil {
		return Result{}, err
	}

	sig := Calculate(series, w)
	dec := Classify(sig)

	return Result{
		Series:    slices.Clone(series),
		RecentN:   len(w.Recent),
		BaselineN: len(w.Baseline),
		Signals:   sig,
		Decision:  dec,
		Scenario:  Simulate(sig, params),
		Actions:   RecommendedActions(dec.Priority),
	}, nil
}

// EvaluateDataset selects metric from ds and evaluates it. An empty metric
// selects the first numeric column.
//
// ErrNoNumericData and ErrEmptyDataset are returned unwrapped. An unknown
// metric wraps ErrUnknownMetric.
func EvaluateDataset(ds Dataset, metric string, params ScenarioParams) (Result, error) {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return Result{}, ErrNoNumericData
	}
	if metric == "" {
		metric = cols[0]
	} else if !slices.Contains(cols, metric) {
		return Result{}, fmt.Errorf("%w: %q (numeric columns: %v)", ErrUnknownMetric, metric, cols)
	}

	series, err := ds.Column(metric)
	if err != nil {
		return Result{}, err
	}

	res, err := Evaluate(series, params)
	if err != nil {
		return Result{}, err
	}
	res.Metric = metric
	return res, nil
}
