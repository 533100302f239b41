package engine

import "math"

// Stat is a window statistic that may be undefined: the mean of an empty
// window, or the sample standard deviation of a window with fewer than two
// values. Valid is false for undefined statistics and Value is then 0.
type Stat struct {
	Value float64
	Valid bool
}

// Signals are the scalar inputs to classification.
type Signals struct {
	// ChangeRatio is (recent_mean - baseline_mean) / |baseline_mean|.
	// It is 0 when either mean is undefined or the baseline mean is 0.
	// Not clamped.
	ChangeRatio float64

	// VariabilityRatio is recent_std / baseline_std, or 0 when either
	// deviation is undefined or the baseline deviation is 0.
	VariabilityRatio float64

	// TrendConsistency is |mean(sign(x[i] - x[i-1]))| over the full series,
	// in [0, 1]. Series with fewer than two points score 0.
	TrendConsistency float64

	// TotalRecords is the length of the series.
	TotalRecords int

	BaselineMean Stat
	RecentMean   Stat
	BaselineStd  Stat
	RecentStd    Stat
}

// Decreased reports whether the recent mean fell below the baseline mean.
func (s Signals) Decreased() bool { return s.ChangeRatio < 0 }

// VariabilityIncreased reports whether recent variability exceeds the
// baseline by more than VariabilityThreshold.
func (s Signals) VariabilityIncreased() bool { return s.VariabilityRatio > VariabilityThreshold }

// TrendInconsistent reports whether step directions disagree too often.
func (s Signals) TrendInconsistent() bool { return s.TrendConsistency < TrendThreshold }

// SmallSample reports whether the series is shorter than MinRecords.
func (s Signals) SmallSample() bool { return s.TotalRecords < MinRecords }

// Calculate derives Signals from the full series and its windows.
func Calculate(series []float64, w Window) Signals {
	s := Signals{
		TotalRecords:     len(series),
		BaselineMean:     mean(w.Baseline),
		RecentMean:       mean(w.Recent),
		BaselineStd:      sampleStd(w.Baseline),
		RecentStd:        sampleStd(w.Recent),
		TrendConsistency: trendConsistency(series),
	}

	if s.BaselineMean.Valid && s.RecentMean.Valid && s.BaselineMean.Value != 0 {
		s.ChangeRatio = (s.RecentMean.Value - s.BaselineMean.Value) / math.Abs(s.BaselineMean.Value)
	}
	if s.BaselineStd.Valid && s.RecentStd.Valid && s.BaselineStd.Value != 0 {
		s.VariabilityRatio = s.RecentStd.Value / s.BaselineStd.Value
	}
	return s
}

func mean(xs []float64) Stat {
	if len(xs) == 0 {
		return Stat{}
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return Stat{Value: sum / float64(len(xs)), Valid: true}
}

// sampleStd uses the n-1 denominator.
func sampleStd(xs []float64) Stat {
	if len(xs) < 2 {
		return Stat{}
	}
	m := mean(xs).Value
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return Stat{Value: math.Sqrt(ss / float64(len(xs)-1)), Valid: true}
}

func trendConsistency(series []float64) float64 {
	var sum float64
	var count int
	for i := 1; i < len(series); i++ {
		d := series[i] - series[i-1]
		if math.IsNaN(d) {
			continue
		}
		sum += sign(d)
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Abs(sum / float64(count))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
