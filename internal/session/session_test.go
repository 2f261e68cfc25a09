package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"diskforge/internal/config"
	"diskforge/internal/job"
	"diskforge/internal/model"
)

type fakeJob struct {
	job.BaseJob
	plan    string
	execute func(ctx *job.JobContext) (any, error)
}

func (f *fakeJob) GetPlan() string { return f.plan }
func (f *fakeJob) Execute(ctx *job.JobContext) (any, error) {
	return f.execute(ctx)
}

func testConfig(t *testing.T) *config.DiskForgeConfig {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SessionDirectory = filepath.Join(dir, "sessions")
	cfg.Logging.LogDirectory = filepath.Join(dir, "logs")
	cfg.Logging.ConsoleEnabled = false
	cfg.Logging.FileEnabled = false
	return cfg
}

func TestRunJobDeniedWithoutDangerMode(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	j := &fakeJob{plan: "wipe /dev/sdb", execute: func(ctx *job.JobContext) (any, error) { return nil, nil }}
	result := s.RunJob(Spec{Name: "wipe", Description: "wipe disk", OperationType: model.OperationDelete, Job: j})

	if result.Success {
		t.Fatal("expected a destructive op to be denied while danger mode is disabled")
	}
	if result.Error == "" {
		t.Fatal("expected a denial reason")
	}
}

func TestRunJobAllowsReadOnlyWithoutDangerMode(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ran := false
	j := &fakeJob{plan: "list disks", execute: func(ctx *job.JobContext) (any, error) {
		ran = true
		return "ok", nil
	}}
	result := s.RunJob(Spec{Name: "list", Description: "list disks", OperationType: model.OperationReadOnly, Job: j})

	if !ran || !result.Success {
		t.Fatalf("expected read-only job to run and succeed, got success=%v", result.Success)
	}
}

func TestEnableDangerModeAllowsDestructiveOp(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !s.EnableDangerMode("I understand the risks") {
		t.Fatal("expected danger mode to arm with the exact phrase")
	}

	j := &fakeJob{plan: "wipe /dev/sdb", execute: func(ctx *job.JobContext) (any, error) { return nil, nil }}
	result := s.RunJob(Spec{Name: "wipe", Description: "wipe disk", OperationType: model.OperationDelete, Job: j})
	if !result.Success {
		t.Fatalf("expected destructive op to run once armed, error: %s", result.Error)
	}
}

func TestSubmitJobDeniedNeverReachesRunner(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	j := &fakeJob{plan: "wipe", execute: func(ctx *job.JobContext) (any, error) {
		t.Fatal("denied job must never execute")
		return nil, nil
	}}
	if _, err := s.SubmitJob(Spec{Name: "wipe", OperationType: model.OperationDelete, Job: j}); err == nil {
		t.Fatal("expected submission to be denied")
	}
}

func TestCloseWritesReportWithSummary(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	j := &fakeJob{plan: "list", execute: func(ctx *job.JobContext) (any, error) { return nil, nil }}
	s.RunJob(Spec{Name: "list", OperationType: model.OperationReadOnly, Job: j})

	path, err := s.Close()
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	summary, ok := doc["summary"].(map[string]any)
	if !ok {
		t.Fatal("expected a summary object in the report")
	}
	if summary["total_operations"].(float64) != 1 {
		t.Fatalf("total_operations = %v, want 1", summary["total_operations"])
	}
	if doc["ended_at"] == nil {
		t.Fatal("expected ended_at to be set after Close")
	}
}

func TestDisableDangerModeRecordsEvent(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.EnableDangerMode("I understand the risks")
	s.DisableDangerMode()

	events := s.Report().DangerModeEvents
	if len(events) != 2 {
		t.Fatalf("expected 2 danger-mode events, got %d", len(events))
	}
	if events[1].Action != "disable" || !events[1].Success {
		t.Fatalf("unexpected last event: %+v", events[1])
	}
}
