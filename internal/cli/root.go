// Package cli implements the csi-capture command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/cvcapture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/gstpipe"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/config"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=v1.2.3"
var Version = "dev"

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	debug      bool
	logFormat  string

	sensorID      int
	captureWidth  int
	captureHeight int
	displayWidth  int
	displayHeight int
	framerate     int
	flipMethod    int
	backend       string
	testPattern   bool
	window        string
}

// NewRootCommand builds the csi-capture command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "csi-capture",
		Short: "CSI camera live view",
		Long: `csi-capture opens a CSI camera through an nvarguscamerasrc GStreamer pipeline,
overlays a frame counter and FPS estimate, and shows it in a window (live) or
runs headless and saves annotated snapshots (capture).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	def := csicapture.DefaultCaptureConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
	flags.IntVar(&opts.sensorID, "sensor-id", def.SensorID, "CSI sensor index")
	flags.IntVar(&opts.captureWidth, "capture-width", def.CaptureWidth, "Sensor capture width")
	flags.IntVar(&opts.captureHeight, "capture-height", def.CaptureHeight, "Sensor capture height")
	flags.IntVar(&opts.displayWidth, "display-width", def.DisplayWidth, "Output frame width")
	flags.IntVar(&opts.displayHeight, "display-height", def.DisplayHeight, "Output frame height")
	flags.IntVar(&opts.framerate, "framerate", def.Framerate, "Capture framerate")
	flags.IntVar(&opts.flipMethod, "flip-method", int(def.FlipMethod), "nvvidconv flip-method (0-7)")
	flags.StringVar(&opts.backend, "backend", config.BackendGst, "Capture backend: gst, opencv")
	flags.BoolVar(&opts.testPattern, "test-pattern", false, "Use videotestsrc instead of the CSI sensor")
	flags.StringVar(&opts.window, "window", "CSI Camera", "Window title")

	rootCmd.AddCommand(NewLiveCommand(opts))
	rootCmd.AddCommand(NewCaptureCommand(opts))
	rootCmd.AddCommand(NewPipelineCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the command tree
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig merges the config file, CSI_* environment and explicitly set
// flags, in that order of precedence (flags win).
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("sensor-id") {
		cfg.Camera.SensorID = o.sensorID
	}
	if changed("capture-width") {
		cfg.Camera.CaptureWidth = o.captureWidth
	}
	if changed("capture-height") {
		cfg.Camera.CaptureHeight = o.captureHeight
	}
	if changed("display-width") {
		cfg.Camera.DisplayWidth = o.displayWidth
	}
	if changed("display-height") {
		cfg.Camera.DisplayHeight = o.displayHeight
	}
	if changed("framerate") {
		cfg.Camera.Framerate = o.framerate
	}
	if changed("flip-method") {
		cfg.Camera.FlipMethod = o.flipMethod
	}
	if changed("backend") {
		cfg.Backend = o.backend
	}
	if changed("test-pattern") {
		cfg.TestPattern = o.testPattern
	}
	if changed("window") {
		cfg.Display.Window = o.window
	}
	if changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger for cfg and installs it as default
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// newBackend returns the capture backend named by the config
func newBackend(name string, logger *slog.Logger) (csicapture.Backend, error) {
	switch name {
	case config.BackendGst:
		return gstpipe.NewBackendWithConfig(gstpipe.Config{Logger: logger}), nil
	case config.BackendOpenCV:
		return cvcapture.NewBackendWithLogger(logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// descriptorFor returns the pipeline the config selects
func descriptorFor(cfg *config.Config) string {
	if cfg.TestPattern {
		return csicapture.TestPatternDescriptor(cfg.CaptureConfig())
	}
	return csicapture.PipelineDescriptor(cfg.CaptureConfig())
}

// openSource opens the camera described by cfg
func openSource(cfg *config.Config, logger *slog.Logger, extra ...csicapture.Option) (*csicapture.Source, error) {
	backend, err := newBackend(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}

	opts := []csicapture.Option{
		csicapture.WithLogger(logger),
		csicapture.WithDescriptor(descriptorFor(cfg)),
	}
	opts = append(opts, extra...)

	return csicapture.Open(cfg.CaptureConfig(), backend, opts...)
}
