package history

import "time"

// Status is the terminal state of a run.
type Status string

const (
	// StatusSucceeded means every executed unit converted cleanly.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means at least one unit failed during execution.
	StatusFailed Status = "failed"
	// StatusAborted means discovery, scheduling, or an interrupt ended the run early.
	StatusAborted Status = "aborted"
)

// Item statuses.
const (
	ItemSucceeded = "succeeded"
	ItemFailed    = "failed"
)

// Run is one recorded batch run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	SourceDir    string
	TargetDir    string
	Decompiler   string
	Concurrency  int
	Total        int
	Succeeded    int
	Failed       int
	Skipped      int
	Status       Status
	ErrorMessage string
}

// Duration returns the wall-clock time of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Item is one executed unit of a run.
type Item struct {
	Position      int
	QualifiedName string
	OutputPath    string
	Status        string
	FailureKind   string
	ExitCode      int
	ErrorMessage  string
	Duration      time.Duration
}
