// Package frames discovers source images and maintains the canonically
// indexed frame directory the segmentation runner consumes.
//
// Indexing is a destructive rebuild: the destination is cleared and
// repopulated on every run, so the indexed view can never drift from the
// source. This trades copy time for mutation safety; callers must not let a
// second process read the destination while a rebuild is in flight (the
// pipeline's run lock enforces that).
package frames
