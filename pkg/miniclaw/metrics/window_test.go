package metrics

import (
	"testing"
	"time"
)

func TestWindowEviction(t *testing.T) {
	w := NewWindow(5)
	for i := 1; i <= 8; i++ {
		w.Record(time.Duration(i) * time.Millisecond)
	}
	if got := w.Count(); got != 5 {
		t.Fatalf("Count = %d, want 5", got)
	}
	// Oldest three evicted; mean of 4..8 ms is 6 ms.
	if got := w.AverageMillis(); got != 6 {
		t.Errorf("AverageMillis = %d, want 6", got)
	}
}

func TestPercentile95(t *testing.T) {
	w := NewWindow(100)
	for i := 1; i <= 100; i++ {
		w.Record(time.Duration(i) * time.Millisecond)
	}
	// ceil(100*0.95)-1 = index 94 → 95ms.
	if got := w.Percentile95(); got != 95*time.Millisecond {
		t.Errorf("Percentile95 = %v, want 95ms", got)
	}
}

func TestPercentile95SmallWindows(t *testing.T) {
	tests := []struct {
		samples []time.Duration
		want    time.Duration
	}{
		{nil, 0},
		{[]time.Duration{7 * time.Millisecond}, 7 * time.Millisecond},
		{[]time.Duration{3 * time.Millisecond, 1 * time.Millisecond}, 3 * time.Millisecond},
	}
	for _, tt := range tests {
		w := NewWindow(10)
		for _, s := range tt.samples {
			w.Record(s)
		}
		if got := w.Percentile95(); got != tt.want {
			t.Errorf("Percentile95(%v) = %v, want %v", tt.samples, got, tt.want)
		}
	}
}

func TestAverageEmpty(t *testing.T) {
	if got := NewWindow(0).AverageMillis(); got != 0 {
		t.Errorf("AverageMillis on empty window = %d, want 0", got)
	}
}
