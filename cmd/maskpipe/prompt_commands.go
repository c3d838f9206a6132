package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"maskpipe/internal/frames"
	"maskpipe/internal/prompts"
)

func newPromptCommand(ctx *commandContext) *cobra.Command {
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Inspect and edit the dataset's click prompt",
	}

	promptCmd.AddCommand(newPromptShowCommand(ctx))
	promptCmd.AddCommand(newPromptSetCommand(ctx))

	return promptCmd
}

func newPromptShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored prompt record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rec, err := prompts.NewStore(cfg.PromptsPath()).Read()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, rec)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Frame:   %d\n", rec.FrameIndex)
			fmt.Fprintf(out, "Object:  %d\n", rec.ObjectID)
			fmt.Fprintf(out, "Image:   %dx%d\n", rec.ImageWidth, rec.ImageHeight)
			if rec.Source != "" {
				fmt.Fprintf(out, "Source:  %s\n", rec.Source)
			}
			for i, point := range rec.Points {
				fmt.Fprintf(out, "Point %d: (%.1f, %.1f) label %d\n", i+1, point[0], point[1], rec.Labels[i])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the record as JSON")
	return cmd
}

func newPromptSetCommand(ctx *commandContext) *cobra.Command {
	var frameIdx int
	var objectID int
	var pointFlags []string
	var labels []int
	var source string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the click prompt for the dataset",
		Long: "Store the click prompt that seeds propagation. Points are " +
			"pixel coordinates on the annotated frame; labels mark each " +
			"point as foreground (1) or background (0). With no points the " +
			"image center is stored as a single foreground click.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			seq, err := frames.Load(cfg.IndexedDir())
			if err != nil {
				return fmt.Errorf("load indexed frames (run `maskpipe index` first): %w", err)
			}
			frame, err := seq.Frame(frameIdx)
			if err != nil {
				return err
			}
			width, height, err := prompts.ImageSize(frame.Path)
			if err != nil {
				return err
			}

			points, err := parsePoints(pointFlags)
			if err != nil {
				return err
			}
			recLabels := labels
			if len(recLabels) == 0 && len(points) > 0 {
				recLabels = make([]int, len(points))
				for i := range recLabels {
					recLabels[i] = 1
				}
			}
			recSource := strings.TrimSpace(source)
			if recSource == "" {
				recSource = frame.OriginalName
			}

			rec := prompts.Record{
				FrameIndex:  frameIdx,
				ObjectID:    objectID,
				Points:      points,
				Labels:      recLabels,
				ImageWidth:  width,
				ImageHeight: height,
				Source:      recSource,
			}
			store := prompts.NewStore(cfg.PromptsPath())
			if err := store.Write(rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote prompt for frame %d to %s\n", frameIdx, store.Path())
			return nil
		},
	}

	cmd.Flags().IntVar(&frameIdx, "frame", 0, "Annotated frame index")
	cmd.Flags().IntVar(&objectID, "object", 1, "Object id the prompt selects")
	cmd.Flags().StringArrayVar(&pointFlags, "point", nil, "Click point as x,y (repeatable)")
	cmd.Flags().IntSliceVar(&labels, "label", nil, "Label per point, 1 foreground or 0 background (repeatable)")
	cmd.Flags().StringVar(&source, "source", "", "Original frame name to record (defaults to the frame's source name)")
	return cmd
}

func parsePoints(values []string) ([]prompts.Point, error) {
	points := make([]prompts.Point, 0, len(values))
	for _, value := range values {
		parts := strings.Split(value, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid point %q: expected x,y", value)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid point %q: expected numeric x,y", value)
		}
		points = append(points, prompts.Point{x, y})
	}
	return points, nil
}
