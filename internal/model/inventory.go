package model

import (
	"strings"
	"time"
)

// Inventory is a point-in-time snapshot of the disks on a host. It is never
// assumed to be live: every backend call that produces one is a fresh read.
type Inventory struct {
	Disks       []*Disk   `json:"disks"`
	CapturedAt  time.Time `json:"captured_at"`
	Platform    string    `json:"platform"`
	ParseErrors []string  `json:"parse_errors,omitempty"`
}

// TotalDisks returns the disk count.
func (inv *Inventory) TotalDisks() int {
	return len(inv.Disks)
}

// TotalPartitions returns the partition count across all disks.
func (inv *Inventory) TotalPartitions() int {
	n := 0
	for _, d := range inv.Disks {
		n += len(d.Partitions)
	}
	return n
}

// TotalCapacityBytes sums every disk's size.
func (inv *Inventory) TotalCapacityBytes() uint64 {
	var total uint64
	for _, d := range inv.Disks {
		total += d.SizeBytes
	}
	return total
}

// GetDiskByPath finds a disk by its device path.
func (inv *Inventory) GetDiskByPath(path string) *Disk {
	for _, d := range inv.Disks {
		if d.DevicePath == path {
			return d
		}
	}
	return nil
}

// GetPartitionByPath finds a partition by its device path, returning its
// parent Disk alongside it since Partition carries no back-pointer.
func (inv *Inventory) GetPartitionByPath(path string) (*Disk, *Partition) {
	for _, d := range inv.Disks {
		for _, p := range d.Partitions {
			if p.DevicePath == path {
				return d, p
			}
		}
	}
	return nil, nil
}

// GetMountedPaths lists every mountpoint currently occupied by a partition.
func (inv *Inventory) GetMountedPaths() []string {
	var out []string
	for _, d := range inv.Disks {
		for _, p := range d.Partitions {
			if p.IsMounted() {
				out = append(out, p.Mountpoint)
			}
		}
	}
	return out
}

// GetMountedDevices maps each mounted partition's device path to its
// mountpoint.
func (inv *Inventory) GetMountedDevices() map[string]string {
	out := make(map[string]string)
	for _, d := range inv.Disks {
		for _, p := range d.Partitions {
			if p.IsMounted() {
				out[p.DevicePath] = p.Mountpoint
			}
		}
	}
	return out
}

// AddParseError appends a non-fatal parse error to the inventory. Parsers
// never fail hard; malformed fields are recorded here instead.
func (inv *Inventory) AddParseError(msg string) {
	inv.ParseErrors = append(inv.ParseErrors, msg)
}

// NormalizeDevicePath trims whitespace; used before any path comparison so
// that trailing newlines from shelled-out tools never cause a lookup miss.
func NormalizeDevicePath(path string) string {
	return strings.TrimSpace(path)
}
