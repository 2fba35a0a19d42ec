// Package gstpipe opens capture pipelines with GStreamer (go-gst) and pulls
// BGR frames synchronously from their appsink.
package gstpipe

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
)

// Config tunes the GStreamer backend
type Config struct {
	// StartTimeout bounds the wait for the pipeline to reach PLAYING (default 5s)
	StartTimeout time.Duration
	// PollInterval is the appsink pull slice used to notice bus errors (default 100ms)
	PollInterval time.Duration
	// Logger receives pipeline diagnostics (default slog.Default())
	Logger *slog.Logger
}

// DefaultConfig returns the default backend settings
func DefaultConfig() Config {
	return Config{
		StartTimeout: 5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		Logger:       slog.Default(),
	}
}

// Backend opens descriptors with gst.NewPipelineFromString
type Backend struct {
	cfg Config
}

// NewBackend creates a GStreamer backend with default settings
func NewBackend() *Backend {
	return NewBackendWithConfig(DefaultConfig())
}

// NewBackendWithConfig creates a GStreamer backend
func NewBackendWithConfig(cfg Config) *Backend {
	def := DefaultConfig()
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = def.StartTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return &Backend{cfg: cfg}
}

var _ csicapture.Backend = (*Backend)(nil)

// Name implements csicapture.Backend
func (b *Backend) Name() string {
	return "gstreamer"
}

// Open parses the descriptor, locates its appsink and starts the pipeline.
//
// The pipeline is set to PLAYING and Open waits (up to StartTimeout) for the
// state change or an error on the bus, so that a missing camera fails here
// rather than on the first read.
func (b *Backend) Open(descriptor string) (csicapture.Capture, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	pipeline, err := gst.NewPipelineFromString(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}

	sink, err := findAppSink(pipeline)
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, err
	}

	// Pull mode only: no new-sample callbacks, Read blocks on the sink
	sink.SetEmitSignals(false)
	sink.SetMaxBuffers(1)

	p := &Pipeline{
		pipeline:     pipeline,
		sink:         sink,
		pollInterval: b.cfg.PollInterval,
		logger:       b.cfg.Logger,
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		p.Release()
		return nil, fmt.Errorf("failed to start pipeline: %w", err)
	}

	if err := p.waitPlaying(b.cfg.StartTimeout); err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// findAppSink returns the appsink element of the pipeline.
//
// The CSI descriptor does not name its sink, so we match on factory name.
func findAppSink(pipeline *gst.Pipeline) (*app.Sink, error) {
	elements, err := pipeline.GetElements()
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline elements: %w", err)
	}

	for _, elem := range elements {
		if elem.GetFactory() != nil && elem.GetFactory().GetName() == "appsink" {
			return app.SinkFromElement(elem), nil
		}
	}

	return nil, fmt.Errorf("pipeline has no appsink element")
}

// waitPlaying polls the bus until the pipeline reports PLAYING, an error, or
// the timeout elapses. A timeout is not fatal: live sources can take a while
// to preroll and the first Read will surface real failures.
func (p *Pipeline) waitPlaying(timeout time.Duration) error {
	bus := p.pipeline.GetPipelineBus()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			p.logger.Error("gstpipe: pipeline error during start",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
			return fmt.Errorf("%s (%s)", gerr.Error(), gerr.DebugString())

		case gst.MessageEOS:
			return fmt.Errorf("end of stream before first frame")

		case gst.MessageStateChanged:
			if msg.Source() == p.pipeline.GetName() {
				_, newState := msg.ParseStateChanged()
				if newState == gst.StatePlaying {
					p.logger.Info("gstpipe: pipeline reached PLAYING state")
					return nil
				}
			}
		}
	}

	p.logger.Warn("gstpipe: pipeline did not report PLAYING before timeout, continuing",
		"timeout", timeout,
	)
	return nil
}
