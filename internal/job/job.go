// Package job implements the Job Engine: a single-process, goroutine-per-job
// runner with cooperative cancellation, pause/resume, progress reporting and
// typed results.
package job

import "errors"

// ErrCancelled is returned by JobContext.CheckCancelled/WaitIfPaused once
// cancellation has been requested, and is what a job body's Execute should
// propagate (directly, or wrapped with fmt.Errorf("%w", ...)) to have the
// runner record the job as CANCELLED rather than FAILED.
var ErrCancelled = errors.New("job was cancelled")

// JobStatus is a job's position in its lifecycle. There are no transitions
// out of a terminal status (COMPLETED, FAILED, CANCELLED).
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusPaused    JobStatus = "PAUSED"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobPriority orders jobs for display/triage purposes; the runner itself
// does not reorder execution by priority since each job gets its own
// goroutine as soon as it is started.
type JobPriority int

const (
	JobPriorityLow      JobPriority = 1
	JobPriorityNormal   JobPriority = 5
	JobPriorityHigh     JobPriority = 10
	JobPriorityCritical JobPriority = 20
)

// Job is one unit of work submitted to a JobRunner. Execute receives the
// JobContext created for this submission and returns arbitrary result data;
// callers that need a concrete type back should use As[T] on the resulting
// JobResult[any].
type Job interface {
	Execute(ctx *JobContext) (any, error)
	GetPlan() string
	Validate() []string
	CanCancel() bool
	CanPause() bool
}

// BaseJob supplies the defaults most Job implementations want: no extra
// validation, cancellable, pausable. Embed it and override what differs.
type BaseJob struct{}

func (BaseJob) Validate() []string { return nil }
func (BaseJob) CanCancel() bool    { return true }
func (BaseJob) CanPause() bool     { return true }
