package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"github.com/gofrs/flock"

	"maskpipe/internal/artifacts"
	"maskpipe/internal/config"
	"maskpipe/internal/fileutil"
	"maskpipe/internal/frames"
	"maskpipe/internal/logging"
	"maskpipe/internal/predictor"
	"maskpipe/internal/prompts"
	"maskpipe/internal/propagation"
	"maskpipe/internal/runlog"
	"maskpipe/internal/services"
)

// Summary reports what one run produced.
type Summary struct {
	RunID         string
	Mode          string
	FramesTotal   int
	FramesEmitted int
	FramesWritten int
	WriteFailures int
	// Written holds the basenames of the visualization files, in emission
	// order. Preview callers surface these to the reviewer.
	Written []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithJournal records runs in the given journal.
func WithJournal(journal *runlog.Store) Option {
	return func(r *Runner) {
		r.journal = journal
	}
}

// WithRand overrides the preview sampling randomness source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		r.rng = rng
	}
}

// Runner executes the propagation workflow for one dataset.
type Runner struct {
	cfg     *config.Config
	client  predictor.Client
	logger  *slog.Logger
	journal *runlog.Store
	rng     *rand.Rand
}

// NewRunner constructs a runner. The journal is optional.
func NewRunner(cfg *config.Config, client predictor.Client, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	runner := &Runner{cfg: cfg, client: client, logger: logger}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes one pipeline pass in the given mode.
func (r *Runner) Run(ctx context.Context, mode propagation.Mode) (*Summary, error) {
	logger := r.logger.With(
		logging.String(logging.FieldDataset, r.cfg.Dataset.Name),
		logging.String(logging.FieldMode, mode.String()))

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "", err)
	}

	// The model setup claims the accelerator and the rebuild/clear steps
	// are destructive, so exactly one run per dataset may be live. The lock
	// must be held before the index rebuild touches anything a live run is
	// streaming from.
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrResourceUnavailable, "pipeline", "lock", r.cfg.LockPath(), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrResourceUnavailable, "pipeline", "lock",
			fmt.Sprintf("another run is active for dataset %s", r.cfg.Dataset.Name), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
	}()

	seq, err := r.resolveSequence()
	if err != nil {
		return nil, err
	}

	rec, err := prompts.NewStore(r.cfg.PromptsPath()).Read()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Mode: mode.String(), FramesTotal: seq.Len()}
	if r.journal != nil {
		id, err := r.journal.Begin(ctx, r.cfg.Dataset.Name, mode.String())
		if err != nil {
			return nil, fmt.Errorf("journal run: %w", err)
		}
		summary.RunID = id
		logger = logger.With(logging.String(logging.FieldRunID, id))
	}

	writer, err := r.buildWriter(mode)
	if err != nil {
		return nil, r.fail(ctx, summary, err)
	}

	logger.Info("starting propagation",
		logging.Int("frames", seq.Len()),
		logging.Int(logging.FieldFrameIndex, rec.FrameIndex))

	engineOpts := []propagation.EngineOption{}
	if r.rng != nil {
		engineOpts = append(engineOpts, propagation.WithRand(r.rng))
	}
	engine := propagation.NewEngine(r.client, logger, engineOpts...)

	emit := func(result predictor.Result) error {
		summary.FramesEmitted++
		frame, err := seq.Frame(result.FrameIndex)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "pipeline", "emit", "", err)
		}
		for k, objectID := range result.ObjectIDs {
			_, visPath, err := writer.Write(frame, objectID, len(result.ObjectIDs), result.Masks[k], mode.IsPreview())
			if err != nil {
				// Isolated: report, keep propagating.
				summary.WriteFailures++
				logger.Warn("artifact write failed",
					logging.Int(logging.FieldFrameIndex, result.FrameIndex),
					logging.Error(err))
				continue
			}
			summary.FramesWritten++
			summary.Written = append(summary.Written, filepath.Base(visPath))
		}
		return nil
	}

	if err := engine.Propagate(ctx, seq, rec, mode, emit); err != nil {
		return nil, r.fail(ctx, summary, err)
	}

	if r.journal != nil {
		if err := r.journal.Finish(ctx, summary.RunID, outcomeOf(summary)); err != nil {
			logger.Warn("failed to journal run completion", logging.Error(err))
		}
	}
	logger.Info("propagation finished",
		logging.Int("written", summary.FramesWritten),
		logging.Int("write_failures", summary.WriteFailures))
	return summary, nil
}

func (r *Runner) resolveSequence() (*frames.Sequence, error) {
	if r.cfg.Dataset.AutoIndex {
		return frames.EnsureIndexed(r.cfg.InputDir(), r.cfg.IndexedDir())
	}
	return frames.Load(r.cfg.IndexedDir())
}

func (r *Runner) buildWriter(mode propagation.Mode) (*artifacts.Writer, error) {
	visualsDir := r.cfg.VisualsDir()
	if mode.IsPreview() {
		visualsDir = r.cfg.PreviewDir()
		// Stale previews must never reach the reviewer.
		if err := fileutil.ClearDir(visualsDir); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "clear preview", visualsDir, err)
		}
	}

	opts := []artifacts.WriterOption{artifacts.WithDimAlpha(r.cfg.Preview.DimAlpha)}
	border, err := artifacts.ParseBorderColor(r.cfg.Preview.BorderColor)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "border color", "", err)
	}
	if border != nil {
		opts = append(opts, artifacts.WithBorder(border))
	}
	return artifacts.NewWriter(r.cfg.MasksDir(), visualsDir, opts...), nil
}

func (r *Runner) fail(ctx context.Context, summary *Summary, cause error) error {
	if r.journal != nil && summary.RunID != "" {
		if err := r.journal.Fail(ctx, summary.RunID, outcomeOf(summary), cause); err != nil {
			r.logger.Warn("failed to journal run failure", logging.Error(err))
		}
	}
	return cause
}

func outcomeOf(summary *Summary) runlog.Outcome {
	return runlog.Outcome{
		FramesTotal:   summary.FramesTotal,
		FramesWritten: summary.FramesWritten,
		WriteFailures: summary.WriteFailures,
	}
}
