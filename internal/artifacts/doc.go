// Package artifacts materializes propagation results as images: a strictly
// binary mask per frame, plus a visualization (solid cutout for full runs,
// dimmed-background overlay for previews).
//
// Binarization happens before any resize, resizing is nearest-neighbor only,
// and the result is re-binarized afterward, so mask files never contain
// values other than 0 and 255 regardless of the runner's mask encoding.
package artifacts
