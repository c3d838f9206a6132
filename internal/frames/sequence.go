package frames

import "fmt"

// Frame is one indexed image in a sequence.
type Frame struct {
	Index        int
	Path         string
	OriginalName string
}

// Sequence is the dense, zero-based view of a dataset's frames. Indices are
// contiguous and stable for the lifetime of one pipeline run.
type Sequence struct {
	Dir    string
	Frames []Frame
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Frame returns the frame at index i.
func (s *Sequence) Frame(i int) (Frame, error) {
	if s == nil || i < 0 || i >= len(s.Frames) {
		return Frame{}, fmt.Errorf("frame index %d out of range [0, %d)", i, s.Len())
	}
	return s.Frames[i], nil
}

// Contains reports whether i is a valid frame index.
func (s *Sequence) Contains(i int) bool {
	return s != nil && i >= 0 && i < len(s.Frames)
}
