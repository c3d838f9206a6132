package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maskpipe/internal/frames"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the zero-padded frame index for the dataset",
		Long: "Rebuild the indexed copy of the dataset's frames. The indexed " +
			"directory is cleared and repopulated with frames renamed to " +
			"000000.jpg, 000001.jpg and so on, in lexicographic source order.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seq, err := frames.EnsureIndexed(cfg.InputDir(), cfg.IndexedDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d frame(s) into %s\n", seq.Len(), seq.Dir)
			return nil
		},
	}
}
