// Package sessionstats keeps a bounded history of frame timestamps and
// derives FPS/jitter statistics from it.
package sessionstats

import "time"

// DefaultCapacity holds ~4 seconds of history at 30 fps
const DefaultCapacity = 120

// Ring is a fixed-size buffer of the most recent frame timestamps.
// Not safe for concurrent use.
type Ring struct {
	samples []time.Time
	next    int
	count   int
}

// NewRing creates a ring holding up to capacity timestamps
// (DefaultCapacity if capacity <= 0).
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{samples: make([]time.Time, capacity)}
}

// Add records a timestamp, overwriting the oldest when full
func (r *Ring) Add(t time.Time) {
	r.samples[r.next] = t
	r.next = (r.next + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
}

// Len returns the number of stored timestamps
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the ring capacity
func (r *Ring) Cap() int {
	return len(r.samples)
}

// Snapshot returns the stored timestamps, oldest first
func (r *Ring) Snapshot() []time.Time {
	out := make([]time.Time, 0, r.count)
	start := (r.next - r.count + len(r.samples)) % len(r.samples)
	for i := 0; i < r.count; i++ {
		out = append(out, r.samples[(start+i)%len(r.samples)])
	}
	return out
}

// Stats computes statistics over the stored timestamps
func (r *Ring) Stats() Stats {
	return Calculate(r.Snapshot())
}
