package csicapture

import (
	"fmt"
	"time"
)

// CaptureConfig contains the parameters of the CSI capture pipeline
type CaptureConfig struct {
	// SensorID selects the CSI sensor (nvarguscamerasrc sensor-id)
	SensorID int
	// CaptureWidth is the raw sensor capture width in pixels
	CaptureWidth int
	// CaptureHeight is the raw sensor capture height in pixels
	CaptureHeight int
	// DisplayWidth is the width of the frames delivered to the caller
	DisplayWidth int
	// DisplayHeight is the height of the frames delivered to the caller
	DisplayHeight int
	// Framerate is the sensor framerate (frames per second, integer)
	Framerate int
	// FlipMethod is the nvvidconv orientation transform
	FlipMethod FlipMethod
}

// DefaultCaptureConfig returns the known-good configuration for a Jetson CSI
// camera: sensor 0, 1920x1080 capture, 960x540 display, 30 fps, rotate 180.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SensorID:      0,
		CaptureWidth:  1920,
		CaptureHeight: 1080,
		DisplayWidth:  960,
		DisplayHeight: 540,
		Framerate:     30,
		FlipMethod:    FlipRotate180,
	}
}

// CaptureResolution returns the capture resolution as "WxH"
func (c CaptureConfig) CaptureResolution() string {
	return fmt.Sprintf("%dx%d", c.CaptureWidth, c.CaptureHeight)
}

// DisplayResolution returns the output resolution as "WxH"
func (c CaptureConfig) DisplayResolution() string {
	return fmt.Sprintf("%dx%d", c.DisplayWidth, c.DisplayHeight)
}

// FlipMethod is the nvvidconv flip-method property
type FlipMethod int

const (
	// FlipNone leaves the image untouched
	FlipNone FlipMethod = iota
	// FlipCounterClockwise rotates 90 degrees counter-clockwise
	FlipCounterClockwise
	// FlipRotate180 rotates 180 degrees (default for most carrier boards)
	FlipRotate180
	// FlipClockwise rotates 90 degrees clockwise
	FlipClockwise
	// FlipHorizontal mirrors horizontally
	FlipHorizontal
	// FlipUpperRightDiagonal flips along the upper-right diagonal
	FlipUpperRightDiagonal
	// FlipVertical mirrors vertically
	FlipVertical
	// FlipUpperLeftDiagonal flips along the upper-left diagonal
	FlipUpperLeftDiagonal
)

// String returns a human-readable name for the flip method
func (f FlipMethod) String() string {
	switch f {
	case FlipNone:
		return "none"
	case FlipCounterClockwise:
		return "counterclockwise"
	case FlipRotate180:
		return "rotate-180"
	case FlipClockwise:
		return "clockwise"
	case FlipHorizontal:
		return "horizontal-flip"
	case FlipUpperRightDiagonal:
		return "upper-right-diagonal"
	case FlipVertical:
		return "vertical-flip"
	case FlipUpperLeftDiagonal:
		return "upper-left-diagonal"
	default:
		return fmt.Sprintf("flip-method(%d)", int(f))
	}
}

// Frame is a single acquired video frame with metadata.
//
// Data is owned by the caller once returned by Source.Acquire; it never
// aliases a buffer held by the capture backend.
type Frame struct {
	// ID is the monotonic frame number (first frame is 1)
	ID uint64
	// Timestamp is the wall-clock acquisition time (nanosecond precision)
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains packed BGR24 pixels (Width × Height × 3 bytes)
	Data []byte
	// FPS is the last committed throughput estimate (0 until the first window closes)
	FPS float64
	// TraceID identifies the frame in logs
	TraceID string
}

// TimestampNS returns the acquisition time in Unix nanoseconds
func (f Frame) TimestampNS() int64 {
	return f.Timestamp.UnixNano()
}

// SessionStats contains statistics of a Source since it was opened
type SessionStats struct {
	// FrameCount is the number of successful acquisitions
	FrameCount uint64
	// Uptime is the time since Open
	Uptime time.Duration
	// FPS is the last committed window estimate (same value Frame.FPS reports)
	FPS float64
	// FPSMean is the mean FPS over the recent frame history
	FPSMean float64
	// FPSStdDev is the standard deviation of instantaneous FPS
	FPSStdDev float64
	// FPSMin is the minimum instantaneous FPS
	FPSMin float64
	// FPSMax is the maximum instantaneous FPS
	FPSMax float64
	// JitterMean is the mean deviation from the expected frame interval (seconds)
	JitterMean float64
	// JitterMax is the largest deviation from the expected frame interval (seconds)
	JitterMax float64
	// IsStable is true if FPS stddev < 15% of mean and jitter < 20% of interval
	IsStable bool
	// Closed is true once Close has run
	Closed bool
}
