package config

import (
	"fmt"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
)

// Capture backends
const (
	BackendGst    = "gst"
	BackendOpenCV = "opencv"
)

// Validate checks the configuration and fills defaults for unset optional
// fields. Camera geometry and framerate have no fallback: Load starts from
// Default(), so a zero there was set explicitly and is rejected.
//
// Errors wrap ErrInvalidConfig.
func Validate(cfg *Config) error {
	def := Default()

	// Camera: checked in declaration order so the first bad field is reported
	cam := []struct {
		name     string
		value    int
		positive bool
	}{
		{"camera.sensor_id", cfg.Camera.SensorID, false},
		{"camera.capture_width", cfg.Camera.CaptureWidth, true},
		{"camera.capture_height", cfg.Camera.CaptureHeight, true},
		{"camera.display_width", cfg.Camera.DisplayWidth, true},
		{"camera.display_height", cfg.Camera.DisplayHeight, true},
		{"camera.framerate", cfg.Camera.Framerate, true},
	}
	for _, f := range cam {
		if f.positive && f.value <= 0 {
			return invalid("%s must be > 0, got %d", f.name, f.value)
		}
		if f.value < 0 {
			return invalid("%s must be >= 0, got %d", f.name, f.value)
		}
	}
	if cfg.Camera.FlipMethod < int(csicapture.FlipNone) || cfg.Camera.FlipMethod > int(csicapture.FlipUpperLeftDiagonal) {
		return invalid("camera.flip_method must be 0-7, got %d", cfg.Camera.FlipMethod)
	}

	switch cfg.Backend {
	case "":
		cfg.Backend = BackendGst
	case BackendGst, BackendOpenCV:
	default:
		return invalid("backend must be %q or %q, got %q", BackendGst, BackendOpenCV, cfg.Backend)
	}

	if cfg.Display.Window == "" {
		cfg.Display.Window = def.Display.Window
	}

	// Capture
	switch cfg.Capture.Format {
	case "":
		cfg.Capture.Format = def.Capture.Format
	case "png", "jpeg":
	default:
		return invalid("capture.format must be png or jpeg, got %q", cfg.Capture.Format)
	}
	if cfg.Capture.JPEGQuality == 0 {
		cfg.Capture.JPEGQuality = def.Capture.JPEGQuality
	}
	if cfg.Capture.JPEGQuality < 1 || cfg.Capture.JPEGQuality > 100 {
		return invalid("capture.jpeg_quality must be 1-100, got %d", cfg.Capture.JPEGQuality)
	}
	if cfg.Capture.Every <= 0 {
		cfg.Capture.Every = def.Capture.Every
	}
	if cfg.Capture.MaxFrames < 0 {
		return invalid("capture.max_frames must be >= 0, got %d", cfg.Capture.MaxFrames)
	}
	if cfg.Capture.StatsIntervalS < 0 {
		return invalid("capture.stats_interval_s must be >= 0, got %d", cfg.Capture.StatsIntervalS)
	}

	// Log
	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = def.Log.Level
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = def.Log.Format
	case "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
