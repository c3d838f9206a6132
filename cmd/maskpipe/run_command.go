package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"maskpipe/internal/pipeline"
	"maskpipe/internal/propagation"
	"maskpipe/internal/runlog"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Propagate masks across the full frame sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(ctx, cmd, propagation.Full())
		},
	}
}

func executePipeline(ctx *commandContext, cmd *cobra.Command, mode propagation.Mode) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	opts := []pipeline.Option{}
	journal, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: run journal unavailable: %v\n", err)
	} else {
		defer journal.Close()
		opts = append(opts, pipeline.WithJournal(journal))
	}

	runner := pipeline.NewRunner(cfg, ctx.newPredictorClient(cfg), logger, opts...)
	summary, err := runner.Run(signalCtx, mode)
	if err != nil {
		return err
	}

	printSummary(cmd, cfg.Dataset.Name, summary)
	return nil
}

func printSummary(cmd *cobra.Command, dataset string, summary *pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset %s: %d of %d frames written (%s mode)\n",
		dataset, summary.FramesWritten, summary.FramesTotal, summary.Mode)
	if summary.WriteFailures > 0 {
		fmt.Fprintf(out, "%d frame(s) failed to write; see the log for details\n", summary.WriteFailures)
	}
}
