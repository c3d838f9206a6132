// Package predictor wraps the external video-segmentation runner behind a
// small interface: seed one annotated frame with labeled points, then consume
// a lazy, ordered, forward-only stream of per-frame mask results.
//
// The runner is an opaque subprocess speaking JSON lines on stdout. The model
// internals are out of scope here; maskpipe only orchestrates around the
// stream. Initializing the runner claims the accelerator, so exactly one
// stream may be live per dataset at a time (the pipeline's run lock enforces
// that).
package predictor
