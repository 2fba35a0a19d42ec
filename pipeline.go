package csicapture

import "fmt"

// csiPipelineFormat is the JetsonHacks CSI-Camera pipeline (known-good on
// Jetson Nano / Xavier NX with L4T 32.x+).
const csiPipelineFormat = "nvarguscamerasrc sensor-id=%d ! " +
	"video/x-raw(memory:NVMM), width=(int)%d, height=(int)%d, framerate=(fraction)%d/1 ! " +
	"nvvidconv flip-method=%d ! " +
	"video/x-raw, width=(int)%d, height=(int)%d, format=(string)BGRx ! " +
	"videoconvert ! " +
	"video/x-raw, format=(string)BGR ! appsink drop=1"

// testPatternFormat produces the same output caps as the CSI pipeline from
// videotestsrc, for machines without an Argus camera.
const testPatternFormat = "videotestsrc is-live=true pattern=smpte ! " +
	"video/x-raw, width=(int)%d, height=(int)%d, framerate=(fraction)%d/1 ! " +
	"videoflip method=%s ! " +
	"videoscale ! " +
	"video/x-raw, width=(int)%d, height=(int)%d ! " +
	"videoconvert ! " +
	"video/x-raw, format=(string)BGR ! appsink drop=1"

// PipelineDescriptor builds the GStreamer launch string for a CSI camera.
//
// Pipeline structure:
//
//	nvarguscamerasrc → NVMM caps (capture size, framerate) → nvvidconv (flip) →
//	BGRx caps (display size) → videoconvert → BGR caps → appsink
//
// The function is pure and total: every input produces a well-formed string.
// Whether the sensor supports the requested mode is decided by the backend
// when the pipeline is opened.
func PipelineDescriptor(cfg CaptureConfig) string {
	return fmt.Sprintf(csiPipelineFormat,
		cfg.SensorID,
		cfg.CaptureWidth,
		cfg.CaptureHeight,
		cfg.Framerate,
		int(cfg.FlipMethod),
		cfg.DisplayWidth,
		cfg.DisplayHeight,
	)
}

// TestPatternDescriptor builds a launch string with the same output format as
// PipelineDescriptor, sourced from videotestsrc instead of the sensor.
// SensorID is ignored.
func TestPatternDescriptor(cfg CaptureConfig) string {
	return fmt.Sprintf(testPatternFormat,
		cfg.CaptureWidth,
		cfg.CaptureHeight,
		cfg.Framerate,
		videoflipMethod(cfg.FlipMethod),
		cfg.DisplayWidth,
		cfg.DisplayHeight,
	)
}

// videoflipMethod maps nvvidconv flip-method values to videoflip nicks
func videoflipMethod(f FlipMethod) string {
	switch f {
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
		return "none"
	}
}
