// Package ops adapts each CLI-facing disk operation to the job.Job
// interface: one small struct per operation, each holding the Backend call
// it delegates to and the options the CLI parsed. Execute runs under the
// JobRunner's goroutine; the backend methods themselves own progress
// reporting and cancellation checks via the JobContext they're handed.
package ops

import (
	"context"
	"fmt"

	"diskforge/internal/backend"
	"diskforge/internal/job"
	"diskforge/internal/model"
)

// ListDisksJob enumerates every disk on the host.
type ListDisksJob struct {
	job.BaseJob
	Backend backend.Backend
}

func (j *ListDisksJob) GetPlan() string { return "Enumerate disk inventory" }
func (j *ListDisksJob) CanCancel() bool { return false }

func (j *ListDisksJob) Execute(jc *job.JobContext) (any, error) {
	return j.Backend.GetDiskInventory(context.Background())
}

// DiskInfoJob reports everything known about a single disk.
type DiskInfoJob struct {
	job.BaseJob
	Backend    backend.Backend
	DevicePath string
}

func (j *DiskInfoJob) GetPlan() string { return fmt.Sprintf("Describe %s", j.DevicePath) }
func (j *DiskInfoJob) CanCancel() bool { return false }

func (j *DiskInfoJob) Execute(jc *job.JobContext) (any, error) {
	return j.Backend.GetDiskInfo(context.Background(), j.DevicePath)
}

// CreatePartitionJob adds a new partition to a disk.
type CreatePartitionJob struct {
	job.BaseJob
	Backend backend.Backend
	Options model.PartitionCreateOptions
}

func (j *CreatePartitionJob) GetPlan() string {
	return fmt.Sprintf("Create a %d-byte %s partition on %s", j.Options.SizeBytes, j.Options.FileSystem, j.Options.DiskPath)
}

func (j *CreatePartitionJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg := j.Backend.CreatePartition(context.Background(), jc, j.Options, j.Options.DryRun)
	return outcome(ok, msg)
}

// DeletePartitionJob removes an existing partition.
type DeletePartitionJob struct {
	job.BaseJob
	Backend    backend.Backend
	DevicePath string
	DryRun     bool
}

func (j *DeletePartitionJob) GetPlan() string { return fmt.Sprintf("Delete partition %s", j.DevicePath) }

func (j *DeletePartitionJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg := j.Backend.DeletePartition(context.Background(), jc, j.DevicePath, j.DryRun)
	return outcome(ok, msg)
}

// FormatPartitionJob formats a partition in place.
type FormatPartitionJob struct {
	job.BaseJob
	Backend backend.Backend
	Options model.FormatOptions
}

func (j *FormatPartitionJob) GetPlan() string {
	return fmt.Sprintf("Format %s as %s", j.Options.PartitionPath, j.Options.FileSystem)
}

func (j *FormatPartitionJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg := j.Backend.FormatPartition(context.Background(), jc, j.Options, j.Options.DryRun)
	return outcome(ok, msg)
}

// CloneDiskJob clones one whole device onto another.
type CloneDiskJob struct {
	job.BaseJob
	Backend backend.Backend
	Options model.CloneOptions
}

func (j *CloneDiskJob) GetPlan() string {
	return fmt.Sprintf("Clone %s to %s", j.Options.SourcePath, j.Options.TargetPath)
}

func (j *CloneDiskJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg := j.Backend.CloneDisk(context.Background(), jc, j.Options, j.Options.DryRun)
	return outcome(ok, msg)
}

// CreateImageJob backs a device up to a (possibly compressed) image file.
type CreateImageJob struct {
	job.BaseJob
	Backend backend.Backend
	Options model.ImageOptions
}

func (j *CreateImageJob) GetPlan() string {
	return fmt.Sprintf("Back up %s to %s", j.Options.SourcePath, j.Options.OutputPath)
}

func (j *CreateImageJob) Execute(jc *job.JobContext) (any, error) {
	info, ok, msg := j.Backend.CreateImage(context.Background(), jc, j.Options, j.Options.DryRun)
	if !ok {
		return nil, fmt.Errorf("%s", msg)
	}
	return info, nil
}

// RestoreImageJob writes a previously-created image back onto a device.
type RestoreImageJob struct {
	job.BaseJob
	Backend backend.Backend
	Options model.RestoreOptions
}

func (j *RestoreImageJob) GetPlan() string {
	return fmt.Sprintf("Restore %s onto %s", j.Options.ImagePath, j.Options.TargetPath)
}

func (j *RestoreImageJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg := j.Backend.RestoreImage(context.Background(), jc, j.Options, j.Options.DryRun)
	return outcome(ok, msg)
}

// CreateRescueMediaJob builds a bootable rescue image at targetPath.
type CreateRescueMediaJob struct {
	job.BaseJob
	Backend    backend.Backend
	TargetPath string
	DryRun     bool
}

func (j *CreateRescueMediaJob) GetPlan() string {
	return fmt.Sprintf("Create rescue media at %s", j.TargetPath)
}

func (j *CreateRescueMediaJob) Execute(jc *job.JobContext) (any, error) {
	ok, msg, details := j.Backend.CreateRescueMedia(context.Background(), jc, j.TargetPath, j.DryRun)
	if !ok {
		return details, fmt.Errorf("%s", msg)
	}
	return details, nil
}

// opOutcome is the plain (success, message) shape most mutating Backend
// calls return, carried through as a job's result Data.
type opOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// outcome turns a Backend (ok, message) pair into the Job Engine's
// (data, error) contract: ok==false must surface as a FAILED job, not a
// COMPLETED one carrying a false Success flag nobody upstream checks.
func outcome(ok bool, msg string) (any, error) {
	if !ok {
		return nil, fmt.Errorf("%s", msg)
	}
	return opOutcome{true, msg}, nil
}
