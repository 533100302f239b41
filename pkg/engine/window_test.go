package engine

import (
	"errors"
	"testing"
)

func TestRecentSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{1, 1},   // clamped to n
		{2, 2},   // clamped to n
		{3, 3},
		{10, 3},  // floor(2.0) < 3
		{14, 3},  // floor(2.8) = 2 < 3
		{15, 3},
		{20, 4},
		{25, 5},
		{99, 19},
		{100, 20},
	}
	for _, tc := range tests {
		if got := RecentSize(tc.n); got != tc.want {
			t.Errorf("RecentSize(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestSplit_Literal(t *testing.T) {
	series := []float64{10, 10, 10, 10, 10, 9, 9, 9, 9, 8}
	w, err := Split(series)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	wantRecent := []float64{9, 9, 8}
	wantBaseline := []float64{10, 10, 10, 10, 10, 9, 9}
	if !equalSlices(w.Recent, wantRecent) {
		t.Errorf("Recent = %v, want %v", w.Recent, wantRecent)
	}
	if !equalSlices(w.Baseline, wantBaseline) {
		t.Errorf("Baseline = %v, want %v", w.Baseline, wantBaseline)
	}
}

func TestSplit_Empty(t *testing.T) {
	_, err := Split(nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Split(nil) error = %v, want ErrEmptyDataset", err)
	}
}

func TestSplit_ShortSeries_EmptyBaseline(t *testing.T) {
	for _, series := range [][]float64{{5}, {5, 6}} {
		w, err := Split(series)
		if err != nil {
			t.Fatalf("Split(%v) error = %v", series, err)
		}
		if len(w.Baseline) != 0 {
			t.Errorf("Split(%v) baseline = %v, want empty", series, w.Baseline)
		}
		if !equalSlices(w.Recent, series) {
			t.Errorf("Split(%v) recent = %v, want whole series", series, w.Recent)
		}
	}
}

func TestSplit_WindowInvariant(t *testing.T) {
	for n := 1; n <= 200; n++ {
		series := make([]float64, n)
		for i := range series {
			series[i] = float64(i)
		}
		w, err := Split(series)
		if err != nil {
			t.Fatalf("n=%d: Split() error = %v", n, err)
		}
		if len(w.Recent)+len(w.Baseline) != n {
			t.Errorf("n=%d: recent %d + baseline %d != n", n, len(w.Recent), len(w.Baseline))
		}
		if len(w.Recent) > n {
			t.Errorf("n=%d: recent %d exceeds n", n, len(w.Recent))
		}
		// Baseline is a prefix and recent a suffix, in original order.
		if len(w.Baseline) > 0 && w.Baseline[0] != 0 {
			t.Errorf("n=%d: baseline does not start at series[0]", n)
		}
		if w.Recent[len(w.Recent)-1] != float64(n-1) {
			t.Errorf("n=%d: recent does not end at series[n-1]", n)
		}
	}
}

func TestSplit_BaselineAppendDoesNotClobberRecent(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	w, _ := Split(series)
	_ = append(w.Baseline, 99)
	if w.Recent[0] != 8 {
		t.Errorf("Recent[0] = %v after appending to baseline, want 8", w.Recent[0])
	}
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
