package propagation

// Mode selects between a full propagation run and a bounded preview.
type Mode struct {
	preview    bool
	frameCount int
}

// Full propagates across every frame in the sequence.
func Full() Mode {
	return Mode{}
}

// Preview emits the annotated frame plus up to n-1 randomly sampled frames.
func Preview(n int) Mode {
	if n < 1 {
		n = 1
	}
	return Mode{preview: true, frameCount: n}
}

// IsPreview reports whether this is a sampled run.
func (m Mode) IsPreview() bool {
	return m.preview
}

// FrameCount returns the preview emission quota, 0 for full runs.
func (m Mode) FrameCount() int {
	return m.frameCount
}

func (m Mode) String() string {
	if m.preview {
		return "preview"
	}
	return "full"
}
