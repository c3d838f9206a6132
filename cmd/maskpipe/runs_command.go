package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"maskpipe/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent pipeline runs for the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			journal, err := runlog.Open(cfg.RunLogPath())
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer journal.Close()

			runs, err := journal.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeRunsJSON(cmd, runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(runs, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit runs as JSON")
	return cmd
}

func renderRunsTable(runs []*runlog.Run, colorize bool) string {
	headers := []string{"Started", "Dataset", "Mode", "Status", "Written", "Failures", "Duration"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Dataset,
			run.Mode,
			renderStatus(run.Status, colorize),
			fmt.Sprintf("%d/%d", run.FramesWritten, run.FramesTotal),
			strconv.Itoa(run.WriteFailures),
			renderDuration(run),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

func renderStatus(status runlog.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case runlog.StatusCompleted:
		return ansiGreen + label + ansiReset
	case runlog.StatusFailed:
		return ansiRed + label + ansiReset
	default:
		return label
	}
}

func renderDuration(run *runlog.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	elapsed := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
	if elapsed < 0 {
		return "-"
	}
	return elapsed.String()
}

func writeRunsJSON(cmd *cobra.Command, runs []*runlog.Run) error {
	type jsonRun struct {
		ID            string `json:"id"`
		Dataset       string `json:"dataset"`
		Mode          string `json:"mode"`
		Status        string `json:"status"`
		FramesTotal   int    `json:"frames_total"`
		FramesWritten int    `json:"frames_written"`
		WriteFailures int    `json:"write_failures"`
		ErrorMessage  string `json:"error_message,omitempty"`
		StartedAt     string `json:"started_at"`
		FinishedAt    string `json:"finished_at,omitempty"`
	}
	items := make([]jsonRun, 0, len(runs))
	for _, run := range runs {
		item := jsonRun{
			ID:            run.ID,
			Dataset:       run.Dataset,
			Mode:          run.Mode,
			Status:        string(run.Status),
			FramesTotal:   run.FramesTotal,
			FramesWritten: run.FramesWritten,
			WriteFailures: run.WriteFailures,
			ErrorMessage:  strings.TrimSpace(run.ErrorMessage),
			StartedAt:     run.StartedAt.Format(time.RFC3339),
		}
		if !run.FinishedAt.IsZero() {
			item.FinishedAt = run.FinishedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return writeJSON(cmd, map[string]any{"runs": items})
}
