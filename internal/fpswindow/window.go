// Package fpswindow implements a windowed throughput estimator.
//
// The estimate is refreshed only when the window has accumulated at least
// one period of wall-clock time; in between, the last committed value is
// reported unchanged. With the default 500ms period this yields a
// twice-per-second FPS readout that ignores per-frame jitter.
package fpswindow

import "time"

// DefaultPeriod is the minimum window length before an estimate is committed
const DefaultPeriod = 500 * time.Millisecond

// Window is a rolling FPS window. The zero value is not usable; use New.
type Window struct {
	period   time.Duration
	start    time.Time
	count    int
	estimate float64
}

// New creates a window starting at start. A non-positive period falls back
// to DefaultPeriod.
func New(start time.Time, period time.Duration) Window {
	if period <= 0 {
		period = DefaultPeriod
	}
	return Window{
		period: period,
		start:  start,
	}
}

// Observe records one sample at now and returns the committed estimate.
//
// When now-start >= period the estimate becomes count/elapsed and the window
// restarts at now with an empty count.
func (w *Window) Observe(now time.Time) float64 {
	w.count++

	elapsed := now.Sub(w.start)
	if elapsed >= w.period {
		w.estimate = float64(w.count) / elapsed.Seconds()
		w.start = now
		w.count = 0
	}

	return w.estimate
}

// Estimate returns the last committed estimate (0 before the first commit)
func (w *Window) Estimate() float64 {
	return w.estimate
}

// Pending returns the number of samples in the open window
func (w *Window) Pending() int {
	return w.count
}

// Period returns the configured window length
func (w *Window) Period() time.Duration {
	return w.period
}
