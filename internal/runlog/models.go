package runlog

import "time"

// Status represents the lifecycle of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID            string
	Dataset       string
	Mode          string
	Status        Status
	FramesTotal   int
	FramesWritten int
	WriteFailures int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Outcome carries the counters recorded when a run finishes.
type Outcome struct {
	FramesTotal   int
	FramesWritten int
	WriteFailures int
}
