package sessionstats

import (
	"math"
	"time"
)

// Stability thresholds, relative to the mean rate and the expected interval.
// At 30 fps: stddev below 4.5 fps and mean jitter below ~6.7ms.
const (
	fpsStabilityThreshold    = 0.15
	jitterStabilityThreshold = 0.20
)

// Stats contains FPS statistics over a sequence of frame timestamps
type Stats struct {
	Frames       int
	Duration     time.Duration
	FPSMean      float64
	FPSStdDev    float64
	FPSMin       float64
	FPSMax       float64
	JitterMean   float64 // seconds
	JitterStdDev float64 // seconds
	JitterMax    float64 // seconds
	IsStable     bool
}

// Calculate derives rate and jitter statistics from timestamps in arrival
// order.
//
// FPSMean is intervals/span. Min, max and stddev are taken over the
// per-interval rates; jitter is each interval's distance from 1/FPSMean.
// The stream is stable when both spreads are under their thresholds.
//
// Fewer than two timestamps, or a zero span, yield zero rates and
// IsStable=false.
func Calculate(frameTimes []time.Time) Stats {
	n := len(frameTimes)
	stats := Stats{Frames: n}
	if n < 2 {
		return stats
	}

	stats.Duration = frameTimes[n-1].Sub(frameTimes[0])
	if stats.Duration <= 0 {
		return stats
	}

	intervals := make([]float64, n-1)
	for i := range intervals {
		intervals[i] = frameTimes[i+1].Sub(frameTimes[i]).Seconds()
	}

	stats.FPSMean = float64(len(intervals)) / stats.Duration.Seconds()
	expected := 1.0 / stats.FPSMean

	rates := make([]float64, 0, len(intervals))
	jitters := make([]float64, len(intervals))
	for i, iv := range intervals {
		if iv > 0 {
			rates = append(rates, 1.0/iv)
		}
		jitters[i] = math.Abs(iv - expected)
	}

	if len(rates) > 0 {
		stats.FPSMin, stats.FPSMax = minMax(rates)
		stats.FPSStdDev = stdDevAround(rates, stats.FPSMean)
	}

	stats.JitterMean = mean(jitters)
	stats.JitterStdDev = stdDevAround(jitters, stats.JitterMean)
	_, stats.JitterMax = minMax(jitters)

	stats.IsStable = len(rates) > 0 &&
		stats.FPSStdDev < stats.FPSMean*fpsStabilityThreshold &&
		stats.JitterMean < expected*jitterStabilityThreshold

	return stats
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevAround is the population standard deviation of values around center
func stdDevAround(values []float64, center float64) float64 {
	var sq float64
	for _, v := range values {
		d := v - center
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
