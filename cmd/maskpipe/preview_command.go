package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maskpipe/internal/propagation"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a small masked sample for prompt review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			count := frames
			if !cmd.Flags().Changed("frames") {
				count = cfg.Preview.FrameCount
			}
			if count < 1 {
				return fmt.Errorf("preview needs at least one frame, got %d", count)
			}
			return executePipeline(ctx, cmd, propagation.Preview(count))
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of preview frames (defaults to preview.frame_count)")
	return cmd
}
