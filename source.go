package csicapture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/fpswindow"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/sessionstats"
)

type sourceState int

const (
	stateOpen sourceState = iota
	stateClosed
)

// Source owns a capture handle opened against a pipeline descriptor and
// produces timestamped frames with a windowed FPS estimate.
//
// A Source is exclusively owned by one acquisition loop: it is not safe for
// concurrent use.
type Source struct {
	cfg        CaptureConfig
	descriptor string
	backend    string

	capture  Capture
	displays []namedCloser

	now         func() time.Time
	logger      *slog.Logger
	traceFrames bool

	state    sourceState
	frameID  uint64
	window   fpswindow.Window
	recent   *sessionstats.Ring
	openedAt time.Time
}

// Open builds the pipeline descriptor for cfg and opens it with backend.
//
// Returns an *OpenError if the backend cannot open the pipeline (camera
// unavailable, malformed descriptor, missing backend). No retry is attempted.
//
// Example:
//
//	src, err := csicapture.Open(csicapture.DefaultCaptureConfig(), gstpipe.NewBackend())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	for {
//	    frame, ok := src.Acquire()
//	    if !ok {
//	        break // stream ended
//	    }
//	    process(frame)
//	}
func Open(cfg CaptureConfig, backend Backend, opts ...Option) (*Source, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	descriptor := o.descriptor
	if descriptor == "" {
		descriptor = PipelineDescriptor(cfg)
	}

	if backend == nil {
		err := errors.New("no capture backend configured (backend is not available)")
		return nil, &OpenError{
			Backend:    "none",
			Descriptor: descriptor,
			Category:   ClassifyOpenError(err),
			Err:        err,
		}
	}

	o.logger.Info("csi-capture: opening camera",
		"backend", backend.Name(),
		"sensor_id", cfg.SensorID,
		"capture", cfg.CaptureResolution(),
		"display", cfg.DisplayResolution(),
		"framerate", cfg.Framerate,
		"flip_method", cfg.FlipMethod.String(),
	)
	o.logger.Debug("csi-capture: pipeline descriptor", "pipeline", descriptor)

	capture, err := backend.Open(descriptor)
	if err == nil && capture == nil {
		err = ErrNoCapture
	}
	if err != nil {
		openErr := &OpenError{
			Backend:    backend.Name(),
			Descriptor: descriptor,
			Category:   ClassifyOpenError(err),
			Err:        err,
		}
		o.logger.Error("csi-capture: unable to open camera",
			"backend", backend.Name(),
			"category", openErr.Category.String(),
			"error", err,
		)
		return nil, openErr
	}

	now := o.clock()
	s := &Source{
		cfg:         cfg,
		descriptor:  descriptor,
		backend:     backend.Name(),
		capture:     capture,
		displays:    o.displays,
		now:         o.clock,
		logger:      o.logger,
		traceFrames: o.traceFrames,
		state:       stateOpen,
		window:      fpswindow.New(now, o.fpsPeriod),
		recent:      sessionstats.NewRing(o.statsWindow),
		openedAt:    now,
	}

	o.logger.Info("csi-capture: camera opened", "backend", s.backend)

	return s, nil
}

// Acquire blocks until the next frame is available.
//
// Returns ok=false when the backend reports end of stream or a read failure,
// or when the Source is closed. This is a soft stop, not an error: the
// caller should end its loop and Close the Source.
func (s *Source) Acquire() (Frame, bool) {
	if s.state != stateOpen {
		return Frame{}, false
	}

	data, width, height, err := s.capture.Read()
	if err != nil {
		reason := "read failure"
		if errors.Is(err, io.EOF) {
			reason = "end of stream"
		}
		s.logger.Warn("csi-capture: soft stop",
			"reason", reason,
			"error", err,
			"frames_acquired", s.frameID,
			"uptime", s.now().Sub(s.openedAt),
		)
		return Frame{}, false
	}
	if len(data) == 0 {
		s.logger.Warn("csi-capture: soft stop",
			"reason", "empty frame",
			"frames_acquired", s.frameID,
		)
		return Frame{}, false
	}

	now := s.now()
	s.frameID++
	fps := s.window.Observe(now)
	s.recent.Add(now)

	frame := Frame{
		ID:        s.frameID,
		Timestamp: now,
		Width:     width,
		Height:    height,
		Data:      data,
		FPS:       fps,
	}
	if s.traceFrames {
		frame.TraceID = uuid.NewString()
	}

	if expected := width * height * 3; len(data) != expected {
		s.logger.Debug("csi-capture: unexpected frame size",
			"id", frame.ID,
			"bytes", len(data),
			"expected", expected,
		)
	}

	return frame, true
}

// Close releases the capture handle, then every registered display resource.
//
// Close is idempotent and never fails: each release is attempted regardless
// of earlier faults (including panics), and faults are logged rather than
// returned because by the time Close runs the program is shutting down.
func (s *Source) Close() {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed

	var faults error
	if s.capture != nil {
		faults = multierr.Append(faults, release("capture", s.capture.Release))
		s.capture = nil
	}
	for _, d := range s.displays {
		faults = multierr.Append(faults, release(d.name, d.closer.Close))
	}
	s.displays = nil

	for _, fault := range multierr.Errors(faults) {
		s.logger.Warn("csi-capture: cleanup fault suppressed", "error", fault)
	}

	stats := s.Stats()
	s.logger.Info("csi-capture: camera closed",
		"frames_acquired", stats.FrameCount,
		"uptime", stats.Uptime,
		"fps", fmt.Sprintf("%.2f", stats.FPS),
		"fps_mean", fmt.Sprintf("%.2f", stats.FPSMean),
		"stable", stats.IsStable,
	)
}

// Stats returns statistics since Open
func (s *Source) Stats() SessionStats {
	recent := s.recent.Stats()
	return SessionStats{
		FrameCount: s.frameID,
		Uptime:     s.now().Sub(s.openedAt),
		FPS:        s.window.Estimate(),
		FPSMean:    recent.FPSMean,
		FPSStdDev:  recent.FPSStdDev,
		FPSMin:     recent.FPSMin,
		FPSMax:     recent.FPSMax,
		JitterMean: recent.JitterMean,
		JitterMax:  recent.JitterMax,
		IsStable:   recent.IsStable,
		Closed:     s.state == stateClosed,
	}
}

// Descriptor returns the pipeline the Source was opened with
func (s *Source) Descriptor() string {
	return s.descriptor
}

// Config returns the capture configuration
func (s *Source) Config() CaptureConfig {
	return s.cfg
}

// Backend returns the name of the capture backend
func (s *Source) Backend() string {
	return s.backend
}

// release runs fn, converting a panic into an error so that the remaining
// releases still run.
func release(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic during release: %v", name, r)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
