// Package pipeline runs the end-to-end propagation workflow for one dataset:
// index frames, read the prompt record, acquire the per-dataset run lock,
// propagate masks, and write artifacts, journaling the outcome.
//
// A run is strictly sequential and exclusive; a second concurrent run against
// the same dataset is refused up front rather than queued, because both the
// indexed-frame rebuild and the preview clear are destructive. Per-frame
// artifact write failures are isolated so partial output survives, while
// indexing, prompt, and compute-resource errors abort immediately.
package pipeline
