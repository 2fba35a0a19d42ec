package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	csicapture "github.com/e7canasta/orion-care-sensor/modules/csi-capture"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/display"
	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/live"
)

// NewLiveCommand shows the camera in a window until ESC, 'q' or Ctrl+C
func NewLiveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Show the camera in a window with a frame/FPS overlay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			disp := display.New(cfg.Display.Window)
			src, err := openSource(cfg, logger, csicapture.WithDisplay("window", disp))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return live.Run(ctx, src, disp, live.WithLogger(logger))
		},
	}
}
