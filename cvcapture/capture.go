// Package cvcapture opens capture pipelines through OpenCV's VideoCapture
// with the GStreamer API preference (gocv).
//
// It exists for hosts where OpenCV was built with GStreamer but the go-gst
// bindings are not available, and mirrors how the camera is usually opened
// on Jetson boards: cv2.VideoCapture(descriptor, cv2.CAP_GSTREAMER).
package cvcapture

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
)

// ErrReadFailed is returned when VideoCapture.Read reports no frame.
//
// OpenCV does not distinguish end of stream from a backend failure.
var ErrReadFailed = errors.New("cvcapture: VideoCapture read returned no frame")

var errReleased = errors.New("cvcapture: capture released")

// Backend opens descriptors with gocv.OpenVideoCaptureWithAPI
type Backend struct {
	logger *slog.Logger
}

var _ csicapture.Backend = (*Backend)(nil)

// NewBackend creates an OpenCV backend logging to slog.Default()
func NewBackend() *Backend {
	return NewBackendWithLogger(nil)
}

// NewBackendWithLogger creates an OpenCV backend (nil logger: slog.Default())
func NewBackendWithLogger(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

// Name implements csicapture.Backend
func (b *Backend) Name() string {
	return "opencv"
}

// Open implements csicapture.Backend
func (b *Backend) Open(descriptor string) (csicapture.Capture, error) {
	vc, err := gocv.OpenVideoCaptureWithAPI(descriptor, gocv.VideoCaptureGstreamer)
	if err != nil {
		return nil, fmt.Errorf("VideoCapture open failed: %w", err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("VideoCapture did not open (camera unavailable, or OpenCV without GStreamer support)")
	}

	b.logger.Debug("cvcapture: VideoCapture opened",
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)

	return &Capture{vc: vc, mat: gocv.NewMat()}, nil
}

// Capture wraps an open gocv.VideoCapture.
//
// The Mat is reused between reads; pixels are copied out with ToBytes.
type Capture struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// Read implements csicapture.Capture
func (c *Capture) Read() ([]byte, int, int, error) {
	if c.vc == nil {
		return nil, 0, 0, errReleased
	}

	if ok := c.vc.Read(&c.mat); !ok {
		return nil, 0, 0, ErrReadFailed
	}

	if c.mat.Empty() {
		return nil, 0, 0, fmt.Errorf("captured frame is empty")
	}

	return c.mat.ToBytes(), c.mat.Cols(), c.mat.Rows(), nil
}

// Release implements csicapture.Capture. Safe to call more than once.
func (c *Capture) Release() error {
	if c.vc == nil {
		return nil
	}

	vc := c.vc
	c.vc = nil

	return multierr.Append(vc.Close(), c.mat.Close())
}
