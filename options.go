package csicapture

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a Source at Open time
type Option func(*sourceOptions)

type sourceOptions struct {
	clock       func() time.Time
	logger      *slog.Logger
	descriptor  string
	fpsPeriod   time.Duration
	statsWindow int
	displays    []namedCloser
	traceFrames bool
}

type namedCloser struct {
	name   string
	closer io.Closer
}

func defaultOptions() sourceOptions {
	return sourceOptions{
		clock:       time.Now,
		logger:      slog.Default(),
		traceFrames: true,
	}
}

// WithClock replaces time.Now (tests use a fake clock)
func WithClock(clock func() time.Time) Option {
	return func(o *sourceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger (default: slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(o *sourceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDescriptor opens descriptor instead of PipelineDescriptor(cfg).
// Used for the test-pattern pipeline.
func WithDescriptor(descriptor string) Option {
	return func(o *sourceOptions) {
		o.descriptor = descriptor
	}
}

// WithFPSPeriod overrides the FPS window length (default 500ms)
func WithFPSPeriod(period time.Duration) Option {
	return func(o *sourceOptions) {
		o.fpsPeriod = period
	}
}

// WithStatsWindow sets how many recent frame timestamps Stats() analyzes
func WithStatsWindow(frames int) Option {
	return func(o *sourceOptions) {
		o.statsWindow = frames
	}
}

// WithDisplay registers a display resource released by Close after the
// capture handle. The closer must tolerate never having been used.
func WithDisplay(name string, display io.Closer) Option {
	return func(o *sourceOptions) {
		if display != nil {
			o.displays = append(o.displays, namedCloser{name: name, closer: display})
		}
	}
}

// WithoutTraceIDs disables per-frame trace IDs
func WithoutTraceIDs() Option {
	return func(o *sourceOptions) {
		o.traceFrames = false
	}
}
