package predictor

import (
	"context"

	"maskpipe/internal/prompts"
)

// Mask holds one object's confidence values at model-native resolution.
// Values are in [0, 1]; anything above 0.5 counts as inside the object.
type Mask struct {
	Width  int
	Height int
	Data   []float32
}

// At returns the confidence at (x, y). Out-of-range coordinates return 0.
func (m Mask) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Data[y*m.Width+x]
}

// Result is one frame's propagation output: the masks for every tracked
// object, aligned with ObjectIDs.
type Result struct {
	FrameIndex int
	ObjectIDs  []int
	Masks      []Mask
}

// Stream is a lazy, ordered, forward-only sequence of results. It is finite
// and not restartable. Next returns io.EOF after the final result. Close may
// be called before exhaustion to abandon the traversal (preview mode stops
// early once its sample quota is met).
type Stream interface {
	Next() (Result, error)
	Close() error
}

// Client starts a propagation over an indexed frame directory. The first
// result on the returned stream is always the annotated frame named by the
// prompt record.
type Client interface {
	Start(ctx context.Context, framesDir string, rec prompts.Record) (Stream, error)
}
