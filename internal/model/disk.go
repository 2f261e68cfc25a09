package model

import "fmt"

// SMARTInfo is a normalized summary of a disk's self-monitoring data. The
// backend that populated it may have more detail in Raw.
type SMARTInfo struct {
	Available          bool           `json:"available"`
	Healthy            bool           `json:"healthy"`
	TemperatureCelsius  int           `json:"temperature_celsius,omitempty"`
	PowerOnHours       uint64         `json:"power_on_hours,omitempty"`
	ReallocatedSectors uint64         `json:"reallocated_sectors,omitempty"`
	PendingSectors     uint64         `json:"pending_sectors,omitempty"`
	Raw                map[string]any `json:"raw,omitempty"`
}

// Disk describes one physical or virtual block device and its partitions.
type Disk struct {
	DevicePath      string `json:"device_path"`
	Model           string `json:"model,omitempty"`
	Serial          string `json:"serial,omitempty"`
	Vendor          string `json:"vendor,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	WWN             string `json:"wwn,omitempty"`
	Interface       string `json:"interface,omitempty"`

	SizeBytes  uint64 `json:"size_bytes"`
	SectorSize uint64 `json:"sector_size"`

	DiskType       DiskType       `json:"disk_type"`
	PartitionStyle PartitionStyle `json:"partition_style"`

	IsRemovable  bool `json:"is_removable"`
	IsReadOnly   bool `json:"is_read_only"`
	IsSystemDisk bool `json:"is_system_disk"`

	Partitions []*Partition `json:"partitions"`

	SMART *SMARTInfo `json:"smart_info,omitempty"`
}

// NewDisk returns a Disk with its sector size defaulted to 512 when zero.
func NewDisk(devicePath string, sizeBytes uint64) *Disk {
	return &Disk{
		DevicePath:     devicePath,
		SizeBytes:      sizeBytes,
		SectorSize:     512,
		DiskType:       DiskTypeUnknown,
		PartitionStyle: PartitionStyleUnknown,
	}
}

// SizeSectors is SizeBytes divided by SectorSize (512 if SectorSize is zero).
func (d *Disk) SizeSectors() uint64 {
	sec := d.SectorSize
	if sec == 0 {
		sec = 512
	}
	return d.SizeBytes / sec
}

// TotalPartitionSize sums the size of every partition on the disk.
func (d *Disk) TotalPartitionSize() uint64 {
	var total uint64
	for _, p := range d.Partitions {
		total += p.SizeBytes
	}
	return total
}

// UnallocatedBytes is the disk's capacity not claimed by any partition,
// floored at zero.
func (d *Disk) UnallocatedBytes() uint64 {
	total := d.TotalPartitionSize()
	if total >= d.SizeBytes {
		return 0
	}
	return d.SizeBytes - total
}

// DisplayName is a human-friendly label combining the model and device path.
func (d *Disk) DisplayName() string {
	if d.Model == "" {
		return d.DevicePath
	}
	return fmt.Sprintf("%s (%s)", d.Model, d.DevicePath)
}

// GetPartitionByNumber finds a partition by its table entry number.
func (d *Disk) GetPartitionByNumber(number int) *Partition {
	for _, p := range d.Partitions {
		if p.Number == number {
			return p
		}
	}
	return nil
}

// Validate checks the invariant that partitions never overcommit the disk.
func (d *Disk) Validate() error {
	if total := d.TotalPartitionSize(); total > d.SizeBytes {
		return fmt.Errorf("disk %s: partitions total %d bytes exceeds disk size %d bytes", d.DevicePath, total, d.SizeBytes)
	}
	for _, p := range d.Partitions {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
