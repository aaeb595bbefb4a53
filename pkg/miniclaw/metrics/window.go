// Package metrics keeps a small in-process view of turn latency: a sliding
// window of the most recent samples with p95 and mean readouts. It is
// deliberately tiny — the daemon is single-host and the numbers exist for
// logs and the status line, not for scraping.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultWindowSize is how many samples the window retains.
const DefaultWindowSize = 100

// Window is a fixed-capacity FIFO of durations. Safe for concurrent use.
type Window struct {
	mu       sync.Mutex
	samples  []time.Duration
	capacity int
}

// NewWindow creates a window with the given capacity (DefaultWindowSize
// when size <= 0).
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{capacity: size}
}

// Record appends a sample, evicting the oldest once the window is full.
func (w *Window) Record(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, d)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[len(w.samples)-w.capacity:]
	}
}

// Count returns the number of retained samples.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

// Percentile95 returns the p95 sample: the element at index ceil(n*0.95)-1
// of the sorted snapshot. Zero when the window is empty.
func (w *Window) Percentile95() time.Duration {
	w.mu.Lock()
	snapshot := make([]time.Duration, len(w.samples))
	copy(snapshot, w.samples)
	w.mu.Unlock()

	n := len(snapshot)
	if n == 0 {
		return 0
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })
	idx := int(math.Ceil(float64(n)*0.95)) - 1
	if idx < 0 {
		idx = 0
	}
	return snapshot[idx]
}

// AverageMillis returns the integer mean of the window in milliseconds.
func (w *Window) AverageMillis() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range w.samples {
		total += d
	}
	return (total / time.Duration(len(w.samples))).Milliseconds()
}
