package ops

import (
	"context"
	"testing"
	"time"

	"diskforge/internal/backend"
	"diskforge/internal/job"
	"diskforge/internal/model"
)

// stubBackend implements backend.Backend with every method failing loudly
// except the ones a given test overrides, so adapter tests only need to set
// the one method under test.
type stubBackend struct {
	formatResult func() (bool, string)
}

func (s *stubBackend) Name() string          { return "stub" }
func (s *stubBackend) RequiresAdmin() bool   { return false }
func (s *stubBackend) IsAdmin() bool         { return true }

func (s *stubBackend) GetDiskInventory(ctx context.Context) (*model.Inventory, error) { return &model.Inventory{}, nil }
func (s *stubBackend) GetDiskInfo(ctx context.Context, path string) (*model.Disk, error) {
	return &model.Disk{DevicePath: path}, nil
}
func (s *stubBackend) GetPartitionInfo(ctx context.Context, path string) (*model.Partition, error) {
	return nil, nil
}
func (s *stubBackend) RefreshDisk(ctx context.Context, path string) (*model.Disk, error) { return nil, nil }
func (s *stubBackend) GetMountedDevices(ctx context.Context) (map[string]string, error) { return nil, nil }
func (s *stubBackend) IsDeviceMounted(ctx context.Context, path string) (bool, error)    { return false, nil }
func (s *stubBackend) IsSystemDevice(ctx context.Context, path string) (bool, error)     { return false, nil }
func (s *stubBackend) GetSMARTInfo(ctx context.Context, path string) (*model.SMARTInfo, error) {
	return nil, nil
}

func (s *stubBackend) CreatePartition(ctx context.Context, jc *job.JobContext, opts model.PartitionCreateOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) DeletePartition(ctx context.Context, jc *job.JobContext, devicePath string, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) FormatPartition(ctx context.Context, jc *job.JobContext, opts model.FormatOptions, dryRun bool) (bool, string) {
	if s.formatResult != nil {
		return s.formatResult()
	}
	return false, "not implemented"
}
func (s *stubBackend) ResizePartition(ctx context.Context, jc *job.JobContext, devicePath string, newSizeBytes uint64, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) ResizeMovePartition(ctx context.Context, jc *job.JobContext, opts model.ResizeMoveOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) MergePartitions(ctx context.Context, jc *job.JobContext, opts model.MergePartitionsOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) SplitPartition(ctx context.Context, jc *job.JobContext, opts model.SplitPartitionOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) ExtendPartition(ctx context.Context, jc *job.JobContext, devicePath string, byBytes uint64, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) ShrinkPartition(ctx context.Context, jc *job.JobContext, devicePath string, byBytes uint64, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) WipeDevice(ctx context.Context, jc *job.JobContext, opts model.WipeOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) AlignPartition4K(ctx context.Context, jc *job.JobContext, opts model.AlignOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) ConvertDiskPartitionStyle(ctx context.Context, jc *job.JobContext, opts model.ConvertDiskOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) MigrateSystem(ctx context.Context, jc *job.JobContext, opts model.MigrationOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) RecoverPartitions(ctx context.Context, jc *job.JobContext, opts model.PartitionRecoveryOptions, dryRun bool) (bool, string, map[string]any) {
	return false, "not implemented", nil
}
func (s *stubBackend) CloneDisk(ctx context.Context, jc *job.JobContext, opts model.CloneOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) ClonePartition(ctx context.Context, jc *job.JobContext, opts model.CloneOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) CreateImage(ctx context.Context, jc *job.JobContext, opts model.ImageOptions, dryRun bool) (*model.ImageInfo, bool, string) {
	return nil, false, "not implemented"
}
func (s *stubBackend) RestoreImage(ctx context.Context, jc *job.JobContext, opts model.RestoreOptions, dryRun bool) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) GetImageInfo(ctx context.Context, path string) (*model.ImageInfo, error) {
	return nil, nil
}
func (s *stubBackend) CreateRescueMedia(ctx context.Context, jc *job.JobContext, targetPath string, dryRun bool) (bool, string, map[string]any) {
	return false, "not implemented", nil
}
func (s *stubBackend) MountPartition(ctx context.Context, devicePath, mountpoint string) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) UnmountPartition(ctx context.Context, devicePath string) (bool, string) {
	return false, "not implemented"
}
func (s *stubBackend) RunCommand(ctx context.Context, argv []string, timeout time.Duration, check bool) (backend.CommandResult, error) {
	return backend.CommandResult{}, nil
}
func (s *stubBackend) ValidateDevicePath(path string) error { return nil }

var _ backend.Backend = (*stubBackend)(nil)

func TestFormatPartitionJobFailureSurfacesAsError(t *testing.T) {
	b := &stubBackend{formatResult: func() (bool, string) { return false, "device busy" }}
	j := &FormatPartitionJob{Backend: b, Options: model.FormatOptions{PartitionPath: "/dev/sdb1"}}

	_, err := j.Execute(job.NewJobContext())
	if err == nil {
		t.Fatal("expected a failed format to surface as an error")
	}
}

func TestFormatPartitionJobSuccess(t *testing.T) {
	b := &stubBackend{formatResult: func() (bool, string) { return true, "formatted" }}
	j := &FormatPartitionJob{Backend: b, Options: model.FormatOptions{PartitionPath: "/dev/sdb1"}}

	data, err := j.Execute(job.NewJobContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, ok := data.(opOutcome)
	if !ok || !o.Success {
		t.Fatalf("expected a successful opOutcome, got %#v", data)
	}
}

func TestListDisksJobCannotBeCancelled(t *testing.T) {
	j := &ListDisksJob{Backend: &stubBackend{}}
	if j.CanCancel() {
		t.Fatal("a single inventory read should not be cancellable mid-flight")
	}
}
