// Package runlog persists a journal of pipeline runs in SQLite.
//
// One row per run records the dataset, mode, frame counts, isolated artifact
// write failures, and final status, so an operator can see what a past run
// produced without replaying it. The database is transient operational state,
// not an archive; delete it to adopt a new schema version.
package runlog
