// Package backend defines the Platform Backend capability contract and a
// concrete Linux implementation built on shelling out to standard disk
// utilities plus a handful of direct syscalls where that avoids a subprocess.
package backend

import (
	"context"
	"time"

	"diskforge/internal/job"
	"diskforge/internal/model"
)

// CommandResult is the outcome of RunCommand.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Backend is the capability set the core consumes; it never assumes a
// specific OS. Every observing method is expected to be idempotent and
// cheap; every mutating method is destructive and must be gated by the
// caller through the Safety Gate before it is invoked.
type Backend interface {
	Name() string
	RequiresAdmin() bool
	IsAdmin() bool

	// Inventory
	GetDiskInventory(ctx context.Context) (*model.Inventory, error)
	GetDiskInfo(ctx context.Context, path string) (*model.Disk, error)
	GetPartitionInfo(ctx context.Context, path string) (*model.Partition, error)
	RefreshDisk(ctx context.Context, path string) (*model.Disk, error)
	GetMountedDevices(ctx context.Context) (map[string]string, error)
	IsDeviceMounted(ctx context.Context, path string) (bool, error)
	IsSystemDevice(ctx context.Context, path string) (bool, error)
	GetSMARTInfo(ctx context.Context, path string) (*model.SMARTInfo, error)

	// Partition operations. Each returns (success, message) and accepts a
	// JobContext so long-running ones can report progress / check for
	// cancellation; dryRun short-circuits before anything is touched.
	CreatePartition(ctx context.Context, jc *job.JobContext, opts model.PartitionCreateOptions, dryRun bool) (bool, string)
	DeletePartition(ctx context.Context, jc *job.JobContext, devicePath string, dryRun bool) (bool, string)
	FormatPartition(ctx context.Context, jc *job.JobContext, opts model.FormatOptions, dryRun bool) (bool, string)
	ResizePartition(ctx context.Context, jc *job.JobContext, devicePath string, newSizeBytes uint64, dryRun bool) (bool, string)
	ResizeMovePartition(ctx context.Context, jc *job.JobContext, opts model.ResizeMoveOptions, dryRun bool) (bool, string)
	MergePartitions(ctx context.Context, jc *job.JobContext, opts model.MergePartitionsOptions, dryRun bool) (bool, string)
	SplitPartition(ctx context.Context, jc *job.JobContext, opts model.SplitPartitionOptions, dryRun bool) (bool, string)
	ExtendPartition(ctx context.Context, jc *job.JobContext, devicePath string, byBytes uint64, dryRun bool) (bool, string)
	ShrinkPartition(ctx context.Context, jc *job.JobContext, devicePath string, byBytes uint64, dryRun bool) (bool, string)
	WipeDevice(ctx context.Context, jc *job.JobContext, opts model.WipeOptions, dryRun bool) (bool, string)
	AlignPartition4K(ctx context.Context, jc *job.JobContext, opts model.AlignOptions, dryRun bool) (bool, string)
	ConvertDiskPartitionStyle(ctx context.Context, jc *job.JobContext, opts model.ConvertDiskOptions, dryRun bool) (bool, string)
	MigrateSystem(ctx context.Context, jc *job.JobContext, opts model.MigrationOptions, dryRun bool) (bool, string)
	RecoverPartitions(ctx context.Context, jc *job.JobContext, opts model.PartitionRecoveryOptions, dryRun bool) (bool, string, map[string]any)

	// Clone/image
	CloneDisk(ctx context.Context, jc *job.JobContext, opts model.CloneOptions, dryRun bool) (bool, string)
	ClonePartition(ctx context.Context, jc *job.JobContext, opts model.CloneOptions, dryRun bool) (bool, string)
	CreateImage(ctx context.Context, jc *job.JobContext, opts model.ImageOptions, dryRun bool) (*model.ImageInfo, bool, string)
	RestoreImage(ctx context.Context, jc *job.JobContext, opts model.RestoreOptions, dryRun bool) (bool, string)
	GetImageInfo(ctx context.Context, path string) (*model.ImageInfo, error)
	CreateRescueMedia(ctx context.Context, jc *job.JobContext, targetPath string, dryRun bool) (bool, string, map[string]any)

	// Mount
	MountPartition(ctx context.Context, devicePath, mountpoint string) (bool, string)
	UnmountPartition(ctx context.Context, devicePath string) (bool, string)

	// Utility
	RunCommand(ctx context.Context, argv []string, timeout time.Duration, check bool) (CommandResult, error)
	ValidateDevicePath(path string) error
}
