package gstpipe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// errReleased is returned by Read after Release
var errReleased = errors.New("gstpipe: pipeline released")

// Pipeline is an open GStreamer capture handle (implements csicapture.Capture)
type Pipeline struct {
	pipeline     *gst.Pipeline
	sink         *app.Sink
	pollInterval time.Duration
	logger       *slog.Logger
}

// Read blocks until the appsink yields a sample, the stream ends, or the bus
// reports an error.
//
// The sink is pulled in PollInterval slices so that bus errors (camera
// unplugged, Argus timeout) end the read instead of blocking forever.
func (p *Pipeline) Read() ([]byte, int, int, error) {
	if p.pipeline == nil {
		return nil, 0, 0, errReleased
	}

	for {
		sample := p.sink.TryPullSample(p.pollInterval)
		if sample != nil {
			return copySample(sample, p.logger)
		}

		if p.sink.IsEOS() {
			return nil, 0, 0, io.EOF
		}

		if err := drainBus(p.pipeline, p.logger); err != nil {
			return nil, 0, 0, err
		}
	}
}

// Release sets the pipeline to NULL and drops references.
//
// Safe to call more than once.
func (p *Pipeline) Release() error {
	if p.pipeline == nil {
		return nil
	}

	pipeline := p.pipeline
	p.pipeline = nil
	p.sink = nil

	// Set pipeline to NULL state (stops and releases resources)
	if err := pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// copySample maps the sample buffer and copies its pixels.
//
// GStreamer reuses the buffer once the sample is released, so the caller
// must never see the mapped memory.
func copySample(sample *gst.Sample, logger *slog.Logger) ([]byte, int, int, error) {
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, 0, 0, fmt.Errorf("sample has no buffer")
	}

	width, height := sampleSize(sample, logger)

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return nil, 0, 0, fmt.Errorf("empty buffer received")
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	return frameData, width, height, nil
}

// sampleSize reads width and height from the sample caps
func sampleSize(sample *gst.Sample, logger *slog.Logger) (int, int) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0
	}

	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0
	}

	return intField(structure, "width", logger), intField(structure, "height", logger)
}

func intField(s *gst.Structure, name string, logger *slog.Logger) int {
	v, err := s.GetValue(name)
	if err != nil {
		logger.Debug("gstpipe: caps field missing", "field", name, "error", err)
		return 0
	}

	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint32:
		return int(n)
	default:
		return 0
	}
}
