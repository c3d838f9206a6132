package propagation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"maskpipe/internal/frames"
	"maskpipe/internal/logging"
	"maskpipe/internal/predictor"
	"maskpipe/internal/prompts"
	"maskpipe/internal/services"
)

// EmitFunc receives propagation results in emission order. Returning an error
// aborts the run; per-frame failures the caller wants to survive must be
// swallowed inside the callback.
type EmitFunc func(predictor.Result) error

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithRand overrides the sampling randomness source.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// Engine wraps a predictor client with sequencing and sampling policy.
type Engine struct {
	client predictor.Client
	logger *slog.Logger
	rng    *rand.Rand
}

// NewEngine constructs an engine. The default randomness source is time
// seeded, so preview samples differ across runs.
func NewEngine(client predictor.Client, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	engine := &Engine{
		client: client,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Propagate seeds the predictor at rec.FrameIndex and emits results in
// stream order, annotated frame first. Full mode emits every frame; preview
// mode emits the annotated frame plus a random sample and abandons the
// traversal early. Context cancellation aborts the underlying runner.
func (e *Engine) Propagate(ctx context.Context, seq *frames.Sequence, rec prompts.Record, mode Mode, emit EmitFunc) error {
	if seq.Len() == 0 {
		return services.Wrap(services.ErrNoFrames, "propagation", "start", "empty frame sequence", nil)
	}
	if !seq.Contains(rec.FrameIndex) {
		return services.Wrap(services.ErrInvalidPrompt, "propagation", "start",
			fmt.Sprintf("annotated frame %d outside sequence of %d frames", rec.FrameIndex, seq.Len()), nil)
	}

	stream, err := e.client.Start(ctx, seq.Dir, rec)
	if err != nil {
		return err
	}
	defer stream.Close()

	// The seed call always yields the annotated frame before any
	// propagated result, in both modes.
	seed, err := stream.Next()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "propagation", "seed",
			fmt.Sprintf("no result for annotated frame %d", rec.FrameIndex), err)
	}
	if err := emit(seed); err != nil {
		return err
	}

	if mode.IsPreview() {
		return e.propagatePreview(ctx, stream, seq.Len(), rec.FrameIndex, mode.FrameCount(), emit)
	}
	return e.propagateFull(ctx, stream, seed.FrameIndex, emit)
}

func (e *Engine) propagateFull(ctx context.Context, stream predictor.Stream, seeded int, emit EmitFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		// Some runners replay the conditioning frame during traversal;
		// it has already been emitted.
		if result.FrameIndex == seeded {
			continue
		}
		if err := emit(result); err != nil {
			return err
		}
	}
}

func (e *Engine) propagatePreview(ctx context.Context, stream predictor.Stream, total, annotated, quota int, emit EmitFunc) error {
	chosen := Sample(e.rng, total, annotated, quota)
	e.logger.Debug("preview sample selected",
		logging.Int("extra", len(chosen)),
		logging.Int(logging.FieldFrameIndex, annotated))

	emitted := 1
	for emitted < 1+len(chosen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if _, ok := chosen[result.FrameIndex]; !ok {
			continue
		}
		if err := emit(result); err != nil {
			return err
		}
		emitted++
	}
	// Quota met; the deferred Close abandons the rest of the traversal.
	return nil
}
