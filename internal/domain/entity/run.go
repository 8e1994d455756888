package entity

import "time"

// RunStatus is the lifecycle state of a pipeline Run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the pipeline. A run is created before any fetch
// or analysis work starts and must be finalized with a terminal status on
// every exit path, including ones triggered by a panic or a canceled
// context.
type Run struct {
	ID          int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Subreddits  []string
	Status      RunStatus

	PostsFetched     int
	PostsAnalyzed    int
	SignalsSaved     int
	QualifiedSignals int
	Errors           int
}

// MarkCompleted finalizes the run with the given counters and a completed
// status. It is the only path that sets CompletedAt alongside a
// non-failure status.
func (r *Run) MarkCompleted(postsFetched, postsAnalyzed, signalsSaved, qualifiedSignals, errs int, completedAt time.Time) {
	r.PostsFetched = postsFetched
	r.PostsAnalyzed = postsAnalyzed
	r.SignalsSaved = signalsSaved
	r.QualifiedSignals = qualifiedSignals
	r.Errors = errs
	r.Status = RunStatusCompleted
	r.CompletedAt = &completedAt
}

// MarkFailed finalizes the run as failed with zeroed counters except for a
// minimum of one recorded error, per the run-finalization invariant: any
// pipeline invocation that raises must leave behind a failed run with
// errors >= 1.
func (r *Run) MarkFailed(completedAt time.Time) {
	r.PostsFetched = 0
	r.PostsAnalyzed = 0
	r.SignalsSaved = 0
	r.QualifiedSignals = 0
	r.Errors = 1
	r.Status = RunStatusFailed
	r.CompletedAt = &completedAt
}
