package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
)

// EnvPrefix prefixes every environment override, e.g. CSI_SENSOR_ID
const EnvPrefix = "CSI_"

// ErrInvalidConfig is wrapped by every validation error
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete csi-capture configuration
type Config struct {
	Camera      CameraConfig  `yaml:"camera"`
	Backend     string        `yaml:"backend" env:"BACKEND"`           // gst, opencv
	TestPattern bool          `yaml:"test_pattern" env:"TEST_PATTERN"` // videotestsrc instead of nvarguscamerasrc
	Display     DisplayConfig `yaml:"display"`
	Capture     CaptureConfig `yaml:"capture"`
	Log         LogConfig     `yaml:"log"`
}

// CameraConfig contains the pipeline parameters
type CameraConfig struct {
	SensorID      int `yaml:"sensor_id" env:"SENSOR_ID"`
	CaptureWidth  int `yaml:"capture_width" env:"CAPTURE_WIDTH"`
	CaptureHeight int `yaml:"capture_height" env:"CAPTURE_HEIGHT"`
	DisplayWidth  int `yaml:"display_width" env:"DISPLAY_WIDTH"`
	DisplayHeight int `yaml:"display_height" env:"DISPLAY_HEIGHT"`
	Framerate     int `yaml:"framerate" env:"FRAMERATE"`
	FlipMethod    int `yaml:"flip_method" env:"FLIP_METHOD"` // nvvidconv flip-method, 0-7
}

// DisplayConfig contains live window settings
type DisplayConfig struct {
	Window string `yaml:"window" env:"WINDOW"`
}

// CaptureConfig contains headless capture settings
type CaptureConfig struct {
	OutputDir      string `yaml:"output_dir" env:"OUTPUT_DIR"`           // empty: no snapshots
	Format         string `yaml:"format" env:"FORMAT"`                   // png, jpeg
	JPEGQuality    int    `yaml:"jpeg_quality" env:"JPEG_QUALITY"`       // 1-100
	Every          int    `yaml:"every" env:"EVERY"`                     // save every Nth frame
	MaxFrames      int    `yaml:"max_frames" env:"MAX_FRAMES"`           // 0: until soft stop or signal
	StatsIntervalS int    `yaml:"stats_interval_s" env:"STATS_INTERVAL"` // 0: disabled
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text, json
}

// Default returns the built-in configuration
func Default() *Config {
	cam := csicapture.DefaultCaptureConfig()
	return &Config{
		Camera: CameraConfig{
			SensorID:      cam.SensorID,
			CaptureWidth:  cam.CaptureWidth,
			CaptureHeight: cam.CaptureHeight,
			DisplayWidth:  cam.DisplayWidth,
			DisplayHeight: cam.DisplayHeight,
			Framerate:     cam.Framerate,
			FlipMethod:    int(cam.FlipMethod),
		},
		Backend: BackendGst,
		Display: DisplayConfig{Window: "CSI Camera"},
		Capture: CaptureConfig{
			Format:         "png",
			JPEGQuality:    90,
			Every:          1,
			StatsIntervalS: 5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load starts from Default, applies the YAML file at path (skipped when path
// is empty), then CSI_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CaptureConfig converts the camera section for csicapture.Open
func (c *Config) CaptureConfig() csicapture.CaptureConfig {
	return csicapture.CaptureConfig{
		SensorID:      c.Camera.SensorID,
		CaptureWidth:  c.Camera.CaptureWidth,
		CaptureHeight: c.Camera.CaptureHeight,
		DisplayWidth:  c.Camera.DisplayWidth,
		DisplayHeight: c.Camera.DisplayHeight,
		Framerate:     c.Camera.Framerate,
		FlipMethod:    csicapture.FlipMethod(c.Camera.FlipMethod),
	}
}
