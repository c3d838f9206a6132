// Package propagation orchestrates mask propagation across a frame sequence.
//
// The engine seeds the predictor with one annotated frame's labeled points and
// consumes the resulting stream in order, emitting the annotated frame first
// in every mode. Preview mode bounds wall-clock cost by emitting only a
// random sample of frames and abandoning the stream once the quota is met.
// The engine never touches the filesystem; callers receive results through an
// emit callback.
package propagation
