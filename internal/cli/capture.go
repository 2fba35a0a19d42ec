package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/snapshot"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

type captureOptions struct {
	outputDir     string
	format        string
	jpegQuality   int
	every         int
	maxFrames     int
	statsInterval int
}

// frameSource is the part of *csicapture.Source the headless loop needs
type frameSource interface {
	Acquire() (csicapture.Frame, bool)
	Close()
	Stats() csicapture.SessionStats
}

// captureSummary counts what the headless loop did
type captureSummary struct {
	Frames     int
	Saved      int
	SaveErrors int
}

// NewCaptureCommand runs the acquisition loop without a window
func NewCaptureCommand(opts *rootOptions) *cobra.Command {
	copts := &captureOptions{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture frames headless, optionally saving annotated snapshots",
		Example: `  csi-capture capture --max-frames 300
  csi-capture capture --test-pattern --output ./frames --every 30 --format jpeg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := copts.apply(cmd, cfg); err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			var writer *snapshot.Writer
			if cfg.Capture.OutputDir != "" {
				writer, err = snapshot.NewWriter(cfg.Capture.OutputDir, cfg.Capture.Format, cfg.Capture.JPEGQuality)
				if err != nil {
					return err
				}
				logger.Info("csi-capture: frame saving enabled",
					"directory", cfg.Capture.OutputDir,
					"format", cfg.Capture.Format,
					"every", cfg.Capture.Every,
				)
			}

			src, err := openSource(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			summary := runCapture(ctx, src, writer, cfg.Capture, out, logger)
			printFinalStats(out, src.Stats(), summary, writer != nil)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&copts.outputDir, "output", "o", "", "Directory to save annotated frames (optional)")
	f.StringVar(&copts.format, "format", "png", "Output format: png, jpeg")
	f.IntVar(&copts.jpegQuality, "jpeg-quality", 90, "JPEG quality (1-100, only for jpeg format)")
	f.IntVar(&copts.every, "every", 1, "Save every Nth frame")
	f.IntVar(&copts.maxFrames, "max-frames", 0, "Maximum frames to capture (0 = unlimited)")
	f.IntVar(&copts.statsInterval, "stats-interval", 5, "Seconds between stats reports (0 = off)")

	return cmd
}

// apply overrides the capture section with explicitly set flags
func (c *captureOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Capture.OutputDir = c.outputDir
	}
	if changed("format") {
		cfg.Capture.Format = c.format
	}
	if changed("jpeg-quality") {
		cfg.Capture.JPEGQuality = c.jpegQuality
	}
	if changed("every") {
		cfg.Capture.Every = c.every
	}
	if changed("max-frames") {
		cfg.Capture.MaxFrames = c.maxFrames
	}
	if changed("stats-interval") {
		cfg.Capture.StatsIntervalS = c.statsInterval
	}
	return config.Validate(cfg)
}

// runCapture acquires frames until a soft stop, MaxFrames or ctx
// cancellation, then closes src.
//
// writer may be nil (no snapshots). Save failures are logged and counted,
// they do not stop the loop.
func runCapture(ctx context.Context, src frameSource, writer *snapshot.Writer, cfg config.CaptureConfig, out io.Writer, logger *slog.Logger) captureSummary {
	defer src.Close()

	var summary captureSummary
	interval := time.Duration(cfg.StatsIntervalS) * time.Second
	lastReport := time.Now()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\nReceived interrupt signal, shutting down...\n")
			return summary
		default:
		}

		frame, ok := src.Acquire()
		if !ok {
			logger.Warn("csi-capture: frame read failed")
			return summary
		}
		summary.Frames++

		fmt.Fprintf(out, "[%s] Frame #%-6d | Size: %6.1f KB | FPS: %5.1f | %dx%d\n",
			frame.Timestamp.Format("15:04:05.000"),
			frame.ID,
			float64(len(frame.Data))/1024,
			frame.FPS,
			frame.Width,
			frame.Height,
		)

		if writer != nil && cfg.Every > 0 && frame.ID%uint64(cfg.Every) == 0 {
			path, err := writer.Save(frame, live.HUDText(frame))
			if err != nil {
				logger.Error("csi-capture: failed to save frame", "error", err, "id", frame.ID)
				summary.SaveErrors++
			} else {
				logger.Debug("csi-capture: frame saved", "path", path)
				summary.Saved++
			}
		}

		if cfg.MaxFrames > 0 && summary.Frames >= cfg.MaxFrames {
			fmt.Fprintf(out, "\nReached maximum frames (%d), stopping...\n", cfg.MaxFrames)
			return summary
		}

		if interval > 0 && time.Since(lastReport) >= interval {
			printStats(out, src.Stats())
			lastReport = time.Now()
		}
	}
}

func printStats(out io.Writer, stats csicapture.SessionStats) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╭─────────────────────────────────────────────────────────╮\n")
	fmt.Fprintf(out, "│ Capture Statistics (Uptime: %s)\n", stats.Uptime.Round(time.Second))
	fmt.Fprintf(out, "├─────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(out, "│ Frames Captured:    %6d frames\n", stats.FrameCount)
	fmt.Fprintf(out, "│ FPS (window):       %6.2f fps\n", stats.FPS)
	fmt.Fprintf(out, "│ FPS Mean:           %6.2f fps\n", stats.FPSMean)
	fmt.Fprintf(out, "│ FPS StdDev:         %6.2f fps\n", stats.FPSStdDev)
	fmt.Fprintf(out, "│ FPS Range:          %6.1f - %.1f fps\n", stats.FPSMin, stats.FPSMax)
	fmt.Fprintf(out, "│ Jitter Mean:        %6.3f s\n", stats.JitterMean)
	fmt.Fprintf(out, "│ Jitter Max:         %6.3f s\n", stats.JitterMax)
	fmt.Fprintf(out, "│ Stable:             %6v\n", stats.IsStable)
	fmt.Fprintf(out, "╰─────────────────────────────────────────────────────────╯\n")
	fmt.Fprintf(out, "\n")
}

func printFinalStats(out io.Writer, stats csicapture.SessionStats, summary captureSummary, saving bool) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "                     Final Statistics                      \n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Total Uptime:       %s\n", stats.Uptime.Round(time.Second))
	fmt.Fprintf(out, "  Frames Captured:    %d frames\n", stats.FrameCount)
	if saving {
		fmt.Fprintf(out, "  Frames Saved:       %d frames\n", summary.Saved)
		fmt.Fprintf(out, "  Save Errors:        %d frames\n", summary.SaveErrors)
	}
	fmt.Fprintf(out, "  Last FPS Estimate:  %.2f fps\n", stats.FPS)
	fmt.Fprintf(out, "  Average FPS:        %.2f fps\n", stats.FPSMean)
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "\n")
}
