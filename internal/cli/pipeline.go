package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPipelineCommand prints the GStreamer descriptor without opening the camera
func NewPipelineCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Print the GStreamer pipeline descriptor",
		Long: `Print the pipeline descriptor built from the current configuration.

The output can be pasted into gst-launch-1.0 (replace appsink with a video sink)
to check the camera outside csi-capture.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), descriptorFor(cfg))
			return nil
		},
	}
}
