package testsupport

import (
	"context"
	"io"

	"maskpipe/internal/predictor"
	"maskpipe/internal/prompts"
)

// ScriptedClient replays a fixed list of predictor results. The first result
// should be the annotated frame, matching the real runner contract.
type ScriptedClient struct {
	Results []predictor.Result
	// StartErr, when set, is returned from Start before any result.
	StartErr error

	// Streams records every stream handed out so tests can assert early
	// Close calls in preview mode.
	Streams []*ScriptedStream
}

// Start returns a stream over the scripted results.
func (c *ScriptedClient) Start(_ context.Context, _ string, _ prompts.Record) (predictor.Stream, error) {
	if c.StartErr != nil {
		return nil, c.StartErr
	}
	stream := &ScriptedStream{results: c.Results}
	c.Streams = append(c.Streams, stream)
	return stream, nil
}

// ScriptedStream iterates scripted results and tracks consumption.
type ScriptedStream struct {
	results []predictor.Result
	pos     int
	Closed  bool
}

// Next returns the next scripted result or io.EOF.
func (s *ScriptedStream) Next() (predictor.Result, error) {
	if s.Closed || s.pos >= len(s.results) {
		return predictor.Result{}, io.EOF
	}
	result := s.results[s.pos]
	s.pos++
	return result, nil
}

// Close marks the stream abandoned.
func (s *ScriptedStream) Close() error {
	s.Closed = true
	return nil
}

// Consumed reports how many results were read before the stream was dropped.
func (s *ScriptedStream) Consumed() int {
	return s.pos
}

// UniformMask builds a mask of the given size filled with one confidence
// value.
func UniformMask(width, height int, value float32) predictor.Mask {
	data := make([]float32, width*height)
	for i := range data {
		data[i] = value
	}
	return predictor.Mask{Width: width, Height: height, Data: data}
}

// SingleObjectResult wraps one mask in a result for object id 1.
func SingleObjectResult(frameIndex int, mask predictor.Mask) predictor.Result {
	return predictor.Result{FrameIndex: frameIndex, ObjectIDs: []int{1}, Masks: []predictor.Mask{mask}}
}
