package job

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeJob struct {
	BaseJob
	plan       string
	validation []string
	execute    func(ctx *JobContext) (any, error)
}

func (f *fakeJob) GetPlan() string        { return f.plan }
func (f *fakeJob) Validate() []string     { return f.validation }
func (f *fakeJob) Execute(ctx *JobContext) (any, error) {
	return f.execute(ctx)
}

func TestRunSyncSuccess(t *testing.T) {
	r := NewJobRunner()
	j := &fakeJob{execute: func(ctx *JobContext) (any, error) {
		ctx.UpdateProgress(ProgressUpdate{Current: intPtr(100), Total: intPtr(100)})
		return "done", nil
	}}

	result := r.RunSync("clone", "clone sda to sdb", JobPriorityNormal, j)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	typed, ok := As[string](result)
	if !ok || typed.Data != "done" {
		t.Fatalf("As[string] = (%+v, %v)", typed, ok)
	}
}

func TestRunSyncValidationFailureNeverExecutes(t *testing.T) {
	r := NewJobRunner()
	ran := false
	j := &fakeJob{
		validation: []string{"target disk too small"},
		execute:    func(ctx *JobContext) (any, error) { ran = true; return nil, nil },
	}

	result := r.RunSync("clone", "", JobPriorityNormal, j)
	if result.Success || ran {
		t.Fatal("expected validation failure to short-circuit execution")
	}
	if result.Error == "" {
		t.Fatal("expected a validation error message")
	}
}

func TestCancellationIsCooperative(t *testing.T) {
	r := NewJobRunner()
	started := make(chan struct{})
	j := &fakeJob{execute: func(ctx *JobContext) (any, error) {
		close(started)
		for {
			if err := ctx.CheckCancelled(); err != nil {
				return nil, err
			}
			time.Sleep(time.Millisecond)
		}
	}}

	id := r.Submit("wipe", "", JobPriorityHigh, j)
	if err := r.Start(id); err != nil {
		t.Fatal(err)
	}
	<-started
	if !r.Cancel(id) {
		t.Fatal("expected Cancel to succeed while running")
	}

	result, ok := r.Wait(id, 2*time.Second)
	if !ok {
		t.Fatal("expected job to finish before timeout")
	}
	if result.Success {
		t.Fatal("expected cancelled job to report failure")
	}
	status, _ := r.GetStatus(id)
	if status != JobStatusCancelled {
		t.Fatalf("status = %v, want CANCELLED", status)
	}
}

func TestPauseResume(t *testing.T) {
	r := NewJobRunner()
	started := make(chan struct{})
	var startedOnce sync.Once
	j := &fakeJob{execute: func(ctx *JobContext) (any, error) {
		for i := 0; i < 50; i++ {
			startedOnce.Do(func() { close(started) })
			if err := ctx.WaitIfPaused(time.Millisecond); err != nil {
				return nil, err
			}
			time.Sleep(time.Millisecond)
		}
		return "ok", nil
	}}

	id := r.Submit("resize", "", JobPriorityNormal, j)
	if err := r.Start(id); err != nil {
		t.Fatal(err)
	}
	<-started

	if !r.Pause(id) {
		t.Fatal("expected Pause to succeed on a running job")
	}
	if status, _ := r.GetStatus(id); status != JobStatusPaused {
		t.Fatalf("status = %v, want PAUSED", status)
	}

	time.Sleep(20 * time.Millisecond)
	if !r.Resume(id) {
		t.Fatal("expected Resume to succeed on a paused job")
	}

	result, ok := r.Wait(id, 2*time.Second)
	if !ok || !result.Success {
		t.Fatalf("expected the job to complete successfully after resume, got ok=%v result=%+v", ok, result)
	}
}

func TestPanicIsRecoveredAsFailure(t *testing.T) {
	r := NewJobRunner()
	j := &fakeJob{execute: func(ctx *JobContext) (any, error) {
		panic("unexpected nil pointer somewhere deep in a backend call")
	}}

	result := r.RunSync("image", "", JobPriorityNormal, j)
	if result.Success {
		t.Fatal("expected panic to surface as a failed result")
	}
	if result.ErrorTraceback == "" {
		t.Fatal("expected a captured traceback")
	}
}

func TestListJobsSortedNewestFirst(t *testing.T) {
	r := NewJobRunner()
	noop := &fakeJob{execute: func(ctx *JobContext) (any, error) { return nil, nil }}

	firstID := r.Submit("first", "", JobPriorityLow, noop)
	time.Sleep(time.Millisecond)
	secondID := r.Submit("second", "", JobPriorityLow, noop)

	jobs := r.ListJobs(nil)
	if len(jobs) != 2 || jobs[0].ID != secondID || jobs[1].ID != firstID {
		t.Fatalf("expected newest-first ordering, got %+v", jobs)
	}
}

func TestUnknownJobOperationsFail(t *testing.T) {
	r := NewJobRunner()
	if r.Cancel("nope") || r.Pause("nope") || r.Resume("nope") {
		t.Fatal("expected operations against an unknown job ID to fail")
	}
	if _, ok := r.GetResult("nope"); ok {
		t.Fatal("expected GetResult for unknown ID to report not-found")
	}
}

func TestProgressPercentageAndETA(t *testing.T) {
	p := JobProgress{Current: 50, Total: 200}
	if p.Percentage() != 25 {
		t.Fatalf("Percentage() = %v, want 25", p.Percentage())
	}

	p = JobProgress{BytesProcessed: 400, BytesTotal: 1000, RateBytesPerSec: 100}
	eta, ok := p.ETASeconds()
	if !ok || eta != 6 {
		t.Fatalf("ETASeconds() = (%v, %v), want (6, true)", eta, ok)
	}

	if _, ok := (JobProgress{}).ETASeconds(); ok {
		t.Fatal("expected no ETA when rate and total are both zero")
	}
}

func TestCheckCancelledIsErrCancelled(t *testing.T) {
	ctx := NewJobContext()
	ctx.Cancel()
	if err := ctx.CheckCancelled(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("CheckCancelled() = %v, want ErrCancelled", err)
	}
}

func intPtr(v int) *int { return &v }
