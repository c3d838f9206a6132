package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maskpipe/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment is ready for a propagation run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			headers := []string{"Check", "Status", "Detail"}
			rows := make([][]string, 0, len(results))
			colorize := shouldColorize(cmd.OutOrStdout())
			for _, result := range results {
				rows = append(rows, []string{result.Name, renderCheckStatus(result, colorize), result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))

			if !preflight.Ok(results) {
				return fmt.Errorf("environment is not ready; fix the failed checks above")
			}
			return nil
		},
	}
}

func renderCheckStatus(result preflight.Result, colorize bool) string {
	switch {
	case result.Passed:
		if colorize {
			return ansiGreen + "ok" + ansiReset
		}
		return "ok"
	case result.Optional:
		return "skip"
	default:
		if colorize {
			return ansiRed + "fail" + ansiReset
		}
		return "fail"
	}
}
