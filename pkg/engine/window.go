package engine

import "math"

const (
	// recentFraction is the share of the series that forms the recent window.
	recentFraction = 0.2

	// minRecent is the smallest recent window, before clamping to the series length.
	minRecent = 3
)

// Window is the series partitioned into a baseline prefix and a recent suffix.
// Both slices alias the input series and must be treated as read-only.
type Window struct {
	Baseline []float64
	Recent   []float64
}

// RecentSize returns max(3, floor(0.2*n)) clamped to n.
func RecentSize(n int) int {
	r := int(math.Floor(recentFraction * float64(n)))
	if r < minRecent {
		r = minRecent
	}
	if r > n {
		r = n
	}
	return r
}

// Split partitions series into baseline and recent windows.
//
// For n < 3 the recent window takes the whole series and the baseline is
// empty; the signal calculator absorbs that case. An empty series returns
// ErrEmptyDataset.
func Split(series []float64) (Window, error) {
	n := len(series)
	if n == 0 {
		return Window{}, ErrEmptyDataset
	}
	baselineN := n - RecentSize(n)
	return Window{
		Baseline: series[:baselineN:baselineN],
		Recent:   series[baselineN:],
	}, nil
}
