package job

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned by runner methods given an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// JobInfo is a read-only snapshot of a submitted job's bookkeeping fields,
// safe to hand to callers without exposing the runner's internal record.
type JobInfo struct {
	ID          string
	Name        string
	Description string
	Priority    JobPriority
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

type record struct {
	info JobInfo
	job  Job
	ctx  *JobContext

	mu     sync.Mutex
	result *JobResult[any]
	done   chan struct{}
}

// JobRunner executes jobs with one goroutine per running job. A single
// JobRunner is expected to live for the lifetime of a session.
type JobRunner struct {
	mu              sync.Mutex
	jobs            map[string]*record
	statusCallbacks []func(id string, status JobStatus)
	wg              sync.WaitGroup
}

// NewJobRunner returns an empty runner.
func NewJobRunner() *JobRunner {
	return &JobRunner{jobs: make(map[string]*record)}
}

// Submit registers a job and returns its generated ID. The job does not run
// until Start (or RunSync, which submits and runs together) is called.
func (r *JobRunner) Submit(name, description string, priority JobPriority, j Job) string {
	id := uuid.New().String()
	rec := &record{
		info: JobInfo{
			ID:          id,
			Name:        name,
			Description: description,
			Priority:    priority,
			Status:      JobStatusPending,
			CreatedAt:   time.Now(),
		},
		job:  j,
		ctx:  NewJobContext(),
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.jobs[id] = rec
	r.mu.Unlock()
	return id
}

// Start validates and begins executing a previously submitted job. A
// validation failure is recorded as a FAILED result synchronously; the
// worker goroutine is only spawned once validation passes.
func (r *JobRunner) Start(id string) error {
	rec, err := r.get(id)
	if err != nil {
		return err
	}

	if errs := rec.job.Validate(); len(errs) > 0 {
		now := time.Now()
		r.finish(rec, JobStatusFailed, &JobResult[any]{
			Success:   false,
			Error:     "Validation failed: " + strings.Join(errs, "; "),
			StartTime: now,
			EndTime:   now,
		})
		return nil
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(rec)
	}()
	return nil
}

// RunSync submits j and executes it synchronously in the caller's
// goroutine, returning its result directly.
func (r *JobRunner) RunSync(name, description string, priority JobPriority, j Job) JobResult[any] {
	id := r.Submit(name, description, priority, j)
	rec, _ := r.get(id)

	if errs := rec.job.Validate(); len(errs) > 0 {
		now := time.Now()
		result := JobResult[any]{
			Success:   false,
			Error:     "Validation failed: " + strings.Join(errs, "; "),
			StartTime: now,
			EndTime:   now,
		}
		r.finish(rec, JobStatusFailed, &result)
		return result
	}

	r.execute(rec)
	result, _ := r.GetResult(id)
	return result
}

func (r *JobRunner) execute(rec *record) {
	r.mu.Lock()
	rec.info.Status = JobStatusRunning
	rec.info.StartedAt = time.Now()
	r.mu.Unlock()
	r.notifyStatus(rec.info.ID, JobStatusRunning)

	data, err := r.runBody(rec)

	status := JobStatusCompleted
	result := JobResult[any]{
		StartTime: rec.info.StartedAt,
		EndTime:   time.Now(),
		Warnings:  rec.ctx.GetWarnings(),
	}

	switch {
	case err == nil:
		result.Success = true
		result.Data = data
	case errors.Is(err, ErrCancelled) || rec.ctx.IsCancelled():
		status = JobStatusCancelled
		result.Error = "Job was cancelled"
	default:
		status = JobStatusFailed
		result.Error = err.Error()
		if tb, ok := err.(interface{ Traceback() string }); ok {
			result.ErrorTraceback = tb.Traceback()
		}
	}

	r.finish(rec, status, &result)
}

// runBody invokes the job body, converting a panic into a FAILED-shaped
// error rather than letting it take down the runner goroutine.
func (r *JobRunner) runBody(rec *record) (data any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError{value: p, stack: string(debug.Stack())}
		}
	}()
	return rec.job.Execute(rec.ctx)
}

type panicError struct {
	value any
	stack string
}

func (e panicError) Error() string     { return fmt.Sprintf("job panicked: %v", e.value) }
func (e panicError) Traceback() string { return e.stack }

func (r *JobRunner) finish(rec *record, status JobStatus, result *JobResult[any]) {
	r.mu.Lock()
	rec.info.Status = status
	rec.info.CompletedAt = time.Now()
	r.mu.Unlock()

	rec.mu.Lock()
	rec.result = result
	rec.mu.Unlock()
	close(rec.done)

	r.notifyStatus(rec.info.ID, status)
}

// Cancel requests cancellation of a RUNNING or PAUSED job that declares
// CanCancel. It returns false if the job can't be found or isn't in a
// cancellable state; the job only actually stops at its next
// CheckCancelled/WaitIfPaused call.
func (r *JobRunner) Cancel(id string) bool {
	rec, err := r.get(id)
	if err != nil {
		return false
	}
	if !rec.job.CanCancel() {
		return false
	}

	r.mu.Lock()
	status := rec.info.Status
	r.mu.Unlock()
	if status != JobStatusRunning && status != JobStatusPaused {
		return false
	}

	rec.ctx.Cancel()
	return true
}

// Pause transitions a RUNNING job to PAUSED, provided it declares CanPause.
func (r *JobRunner) Pause(id string) bool {
	rec, err := r.get(id)
	if err != nil {
		return false
	}
	if !rec.job.CanPause() {
		return false
	}

	r.mu.Lock()
	if rec.info.Status != JobStatusRunning {
		r.mu.Unlock()
		return false
	}
	rec.info.Status = JobStatusPaused
	r.mu.Unlock()

	rec.ctx.Pause()
	r.notifyStatus(id, JobStatusPaused)
	return true
}

// Resume transitions a PAUSED job back to RUNNING.
func (r *JobRunner) Resume(id string) bool {
	rec, err := r.get(id)
	if err != nil {
		return false
	}

	r.mu.Lock()
	if rec.info.Status != JobStatusPaused {
		r.mu.Unlock()
		return false
	}
	rec.info.Status = JobStatusRunning
	r.mu.Unlock()

	rec.ctx.Resume()
	r.notifyStatus(id, JobStatusRunning)
	return true
}

// GetJob returns a snapshot of a submitted job's bookkeeping fields.
func (r *JobRunner) GetJob(id string) (JobInfo, bool) {
	rec, err := r.get(id)
	if err != nil {
		return JobInfo{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return rec.info, true
}

// GetStatus returns a job's current status.
func (r *JobRunner) GetStatus(id string) (JobStatus, bool) {
	info, ok := r.GetJob(id)
	return info.Status, ok
}

// GetProgress returns a job's current progress snapshot.
func (r *JobRunner) GetProgress(id string) (JobProgress, bool) {
	rec, err := r.get(id)
	if err != nil {
		return JobProgress{}, false
	}
	return rec.ctx.GetProgress(), true
}

// GetResult returns a completed job's result. ok is false if the job hasn't
// finished yet or doesn't exist.
func (r *JobRunner) GetResult(id string) (JobResult[any], bool) {
	rec, err := r.get(id)
	if err != nil {
		return JobResult[any]{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.result == nil {
		return JobResult[any]{}, false
	}
	return *rec.result, true
}

// Wait blocks until the job finishes or timeout elapses (no timeout if <=0),
// then returns its result.
func (r *JobRunner) Wait(id string, timeout time.Duration) (JobResult[any], bool) {
	rec, err := r.get(id)
	if err != nil {
		return JobResult[any]{}, false
	}

	if timeout <= 0 {
		<-rec.done
	} else {
		select {
		case <-rec.done:
		case <-time.After(timeout):
			return JobResult[any]{}, false
		}
	}
	return r.GetResult(id)
}

// ListJobs returns every submitted job, optionally filtered by status,
// newest first.
func (r *JobRunner) ListJobs(status *JobStatus) []JobInfo {
	r.mu.Lock()
	infos := make([]JobInfo, 0, len(r.jobs))
	for _, rec := range r.jobs {
		if status == nil || rec.info.Status == *status {
			infos = append(infos, rec.info)
		}
	}
	r.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// AddStatusCallback registers a callback notified on every status
// transition from this point on.
func (r *JobRunner) AddStatusCallback(cb func(id string, status JobStatus)) {
	r.mu.Lock()
	r.statusCallbacks = append(r.statusCallbacks, cb)
	r.mu.Unlock()
}

func (r *JobRunner) notifyStatus(id string, status JobStatus) {
	r.mu.Lock()
	callbacks := make([]func(string, JobStatus), len(r.statusCallbacks))
	copy(callbacks, r.statusCallbacks)
	r.mu.Unlock()

	for _, cb := range callbacks {
		notifyStatus(cb, id, status)
	}
}

func notifyStatus(cb func(string, JobStatus), id string, status JobStatus) {
	defer func() { _ = recover() }()
	cb(id, status)
}

func (r *JobRunner) get(id string) (*record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return rec, nil
}

// Close waits for every currently-running job goroutine to finish.
func (r *JobRunner) Close() {
	r.wg.Wait()
}
