package job

import (
	"sync"
	"time"
)

// JobProgress is a plain snapshot value. Callbacks always receive their own
// copy, never a pointer into the JobContext's live state, so a slow
// subscriber can't observe a half-written update.
type JobProgress struct {
	Current         int
	Total           int
	Message         string
	Stage           string
	BytesProcessed  uint64
	BytesTotal      uint64
	RateBytesPerSec float64
}

// Percentage is Current/Total clamped to 100, or 0 if Total is 0.
func (p JobProgress) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	pct := float64(p.Current) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ETASeconds estimates remaining time from the byte counters and the
// reported rate. The second return is false when there isn't enough
// information to estimate (no rate, or no known total).
func (p JobProgress) ETASeconds() (float64, bool) {
	if p.RateBytesPerSec <= 0 || p.BytesTotal == 0 {
		return 0, false
	}
	remaining := float64(p.BytesTotal) - float64(p.BytesProcessed)
	if remaining < 0 {
		remaining = 0
	}
	return remaining / p.RateBytesPerSec, true
}

// ProgressUpdate is a partial update to a JobContext's progress: only
// non-nil fields are applied, the rest are left as they were.
type ProgressUpdate struct {
	Current         *int
	Total           *int
	Message         *string
	Stage           *string
	BytesProcessed  *uint64
	BytesTotal      *uint64
	RateBytesPerSec *float64
}

// JobContext is the shared, thread-safe state a running job body consults
// for cancellation/pause and reports progress through. One JobContext is
// created per submission and is never reused across jobs.
type JobContext struct {
	mu        sync.Mutex
	cancelled bool
	paused    bool
	progress  JobProgress
	warnings  []string
	callbacks []func(JobProgress)
}

// NewJobContext returns a context with Total defaulted to 100, matching a
// freshly-created job's progress before its body reports anything.
func NewJobContext() *JobContext {
	return &JobContext{progress: JobProgress{Total: 100}}
}

// Cancel requests cancellation. The job body observes it at its next
// CheckCancelled or WaitIfPaused call; nothing is terminated immediately.
func (c *JobContext) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

func (c *JobContext) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *JobContext) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *JobContext) IsCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *JobContext) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// CheckCancelled returns ErrCancelled if cancellation has been requested.
func (c *JobContext) CheckCancelled() error {
	if c.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

// WaitIfPaused blocks while paused, polling at the given interval (100ms if
// zero or negative), and returns ErrCancelled if cancellation is requested
// while paused.
func (c *JobContext) WaitIfPaused(pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	for c.IsPaused() {
		if c.IsCancelled() {
			return ErrCancelled
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// UpdateProgress applies a partial update and delivers a snapshot to every
// registered callback. Callbacks run outside the lock and a panicking
// callback is recovered and ignored; it must not affect the job.
func (c *JobContext) UpdateProgress(u ProgressUpdate) {
	c.mu.Lock()
	if u.Current != nil {
		c.progress.Current = *u.Current
	}
	if u.Total != nil {
		c.progress.Total = *u.Total
	}
	if u.Message != nil {
		c.progress.Message = *u.Message
	}
	if u.Stage != nil {
		c.progress.Stage = *u.Stage
	}
	if u.BytesProcessed != nil {
		c.progress.BytesProcessed = *u.BytesProcessed
	}
	if u.BytesTotal != nil {
		c.progress.BytesTotal = *u.BytesTotal
	}
	if u.RateBytesPerSec != nil {
		c.progress.RateBytesPerSec = *u.RateBytesPerSec
	}
	snapshot := c.progress
	callbacks := make([]func(JobProgress), len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	for _, cb := range callbacks {
		notify(cb, snapshot)
	}
}

func notify(cb func(JobProgress), p JobProgress) {
	defer func() { _ = recover() }()
	cb(p)
}

// AddProgressCallback registers a callback to be notified on every
// UpdateProgress call from this point on.
func (c *JobContext) AddProgressCallback(cb func(JobProgress)) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

// GetProgress returns a snapshot of the current progress.
func (c *JobContext) GetProgress() JobProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// AddWarning records a non-fatal warning to be surfaced in the JobResult.
func (c *JobContext) AddWarning(w string) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
}

// GetWarnings returns a copy of the warnings recorded so far.
func (c *JobContext) GetWarnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}
