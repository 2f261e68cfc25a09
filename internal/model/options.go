package model

// This file collects the plain option records consumed by Platform Backend
// operations (§3 "Operation option records" / §4.1). Each names its
// target(s), desired-state fields, and the dry_run/verify/align flags common
// to destructive calls.

// PartitionCreateOptions describes a new partition to add to a disk.
type PartitionCreateOptions struct {
	DiskPath   string     `json:"disk_path"`
	SizeBytes  uint64     `json:"size_bytes"`
	FileSystem FileSystem `json:"filesystem"`
	Label      string     `json:"label,omitempty"`
	AlignToMB  uint64     `json:"align_to_mb,omitempty"`
	DryRun     bool       `json:"dry_run"`
}

// FormatOptions describes a format-in-place operation.
type FormatOptions struct {
	PartitionPath string     `json:"partition_path"`
	FileSystem    FileSystem `json:"filesystem"`
	Label         string     `json:"label,omitempty"`
	QuickFormat   bool       `json:"quick_format"`
	DryRun        bool       `json:"dry_run"`
}

// ResizeMoveOptions describes a partition resize and/or move.
type ResizeMoveOptions struct {
	PartitionPath  string `json:"partition_path"`
	NewSizeBytes   uint64 `json:"new_size_bytes"`
	NewStartSector uint64 `json:"new_start_sector,omitempty"`
	DryRun         bool   `json:"dry_run"`
}

// WipeOptions describes a device wipe.
type WipeOptions struct {
	DevicePath string `json:"device_path"`
	Passes     int    `json:"passes"`
	DryRun     bool   `json:"dry_run"`
}

// CloneOptions describes a disk-to-disk or partition-to-partition clone.
type CloneOptions struct {
	SourcePath string `json:"source_path"`
	TargetPath string `json:"target_path"`
	Verify     bool   `json:"verify"`
	BlockSize  int    `json:"block_size,omitempty"`
	DryRun     bool   `json:"dry_run"`
}

// ImageOptions describes an image creation.
type ImageOptions struct {
	SourcePath  string      `json:"source_path"`
	OutputPath  string      `json:"output_path"`
	Compression Compression `json:"compression"`
	Verify      bool        `json:"verify"`
	BlockSize   int         `json:"block_size,omitempty"`
	DryRun      bool        `json:"dry_run"`
}

// RestoreOptions describes restoring an image onto a target device.
type RestoreOptions struct {
	ImagePath  string `json:"image_path"`
	TargetPath string `json:"target_path"`
	Verify     bool   `json:"verify"`
	DryRun     bool   `json:"dry_run"`
}

// PartitionRecoveryOptions describes an attempt to recover a lost partition table.
type PartitionRecoveryOptions struct {
	DiskPath   string `json:"disk_path"`
	DeepScan   bool   `json:"deep_scan"`
	OutputDir  string `json:"output_dir,omitempty"`
	DryRun     bool   `json:"dry_run"`
}

// ConvertDiskOptions describes a partition-table-style conversion (MBR<->GPT).
type ConvertDiskOptions struct {
	DiskPath   string         `json:"disk_path"`
	TargetStyle PartitionStyle `json:"target_style"`
	DryRun     bool           `json:"dry_run"`
}

// MigrationOptions describes a system migration to a new disk.
type MigrationOptions struct {
	SourceDiskPath string `json:"source_disk_path"`
	TargetDiskPath string `json:"target_disk_path"`
	Verify         bool   `json:"verify"`
	DryRun         bool   `json:"dry_run"`
}

// MergePartitionsOptions describes merging two adjacent partitions.
type MergePartitionsOptions struct {
	FirstPath  string `json:"first_path"`
	SecondPath string `json:"second_path"`
	DryRun     bool   `json:"dry_run"`
}

// SplitPartitionOptions describes splitting one partition into two.
type SplitPartitionOptions struct {
	PartitionPath  string `json:"partition_path"`
	SplitAtBytes   uint64 `json:"split_at_bytes"`
	NewLabel       string `json:"new_label,omitempty"`
	DryRun         bool   `json:"dry_run"`
}

// AlignOptions describes a 4K-alignment pass over a partition.
type AlignOptions struct {
	PartitionPath string `json:"partition_path"`
	DryRun        bool   `json:"dry_run"`
}
