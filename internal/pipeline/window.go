package pipeline

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// metricsWindowSize caps the rolling duration history.
const metricsWindowSize = 100

// rollingWindow keeps the most recent processing durations in milliseconds,
// evicting the oldest sample first.
type rollingWindow struct {
	mu      sync.Mutex
	samples []float64
}

func newRollingWindow() *rollingWindow {
	return &rollingWindow{samples: make([]float64, 0, metricsWindowSize)}
}

// add appends a sample, evicting the oldest when the window is full.
func (w *rollingWindow) add(ms float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) >= metricsWindowSize {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:metricsWindowSize-1]
	}
	w.samples = append(w.samples, ms)
}

// mean returns the average of the window, or 0 when empty.
func (w *rollingWindow) mean() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) == 0 {
		return 0
	}
	return stat.Mean(w.samples, nil)
}

// fps derives a frame rate estimate from the mean duration.
func (w *rollingWindow) fps() float64 {
	avg := w.mean()
	if avg <= 0 {
		return 0
	}
	return 1000.0 / avg
}

// count returns the number of stored samples.
func (w *rollingWindow) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

// reset discards all samples.
func (w *rollingWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = w.samples[:0]
}
