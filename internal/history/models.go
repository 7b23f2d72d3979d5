package history

import "time"

// Status is the outcome of one episode in a run.
type Status string

const (
	StatusAligned Status = "aligned"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"
)

// Run is one recorded episode outcome.
type Run struct {
	ID           int64
	RunID        string
	Episode      string
	Status       Status
	Transcribed  bool
	Scenes       int
	Unaligned    int
	Cues         int
	Duration     *int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed returns how long the episode took.
func (r Run) Elapsed() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
