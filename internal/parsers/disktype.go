package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"diskforge/internal/model"
)

// ClassifyDiskType derives a DiskType from (transport-hint, rotation-hint,
// path-prefix) with the priority order §4.2 requires: NVMe path/transport
// first, then USB transport, then rotation for SATA/ATA, then name-based
// virtual/RAID/loop prefixes, then rotation as a last resort.
func ClassifyDiskType(name, transport string, rotational *bool) model.DiskType {
	transport = strings.ToLower(transport)

	if strings.HasPrefix(name, "nvme") || transport == "nvme" {
		return model.DiskTypeNVMe
	}
	if transport == "usb" {
		return model.DiskTypeUSB
	}
	if transport == "sata" || transport == "ata" {
		if rotational != nil {
			if *rotational {
				return model.DiskTypeHDD
			}
			return model.DiskTypeSSD
		}
	}
	if strings.HasPrefix(name, "loop") {
		return model.DiskTypeLoop
	}
	if strings.HasPrefix(name, "md") {
		return model.DiskTypeRAID
	}
	if strings.HasPrefix(name, "dm-") || strings.HasPrefix(name, "mapper/") {
		return model.DiskTypeVirtual
	}
	if rotational != nil {
		if *rotational {
			return model.DiskTypeHDD
		}
		return model.DiskTypeSSD
	}
	return model.DiskTypeUnknown
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// PartitionNumber extracts the trailing integer from a device path. The
// trailing-digit match already ignores an NVMe "p" infix on its own
// (e.g. /dev/nvme0n1p3 -> 3, /dev/sda1 -> 1) since "p" isn't a digit.
// Returns 0, false if no trailing digits are present.
func PartitionNumber(devicePath string) (int, bool) {
	m := trailingDigits.FindStringSubmatch(devicePath)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
