package parsers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"diskforge/internal/model"
)

// findmnt mirrors `findmnt -J -b -o SOURCE,TARGET,FSTYPE,SIZE,USED`.
type findmntDump struct {
	Filesystems []struct {
		Source string      `json:"source"`
		Target string      `json:"target"`
		FSType string      `json:"fstype"`
		Size   json.Number `json:"size"`
		Used   json.Number `json:"used"`
	} `json:"filesystems"`
}

// ApplyFindmntJSON fills in mountpoint and used/free space for partitions
// already present in the inventory, matched by device path.
func ApplyFindmntJSON(inv *model.Inventory, data []byte) error {
	var dump findmntDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("parse findmnt: %w", err)
	}

	for _, fs := range dump.Filesystems {
		_, p := inv.GetPartitionByPath(fs.Source)
		if p == nil {
			continue
		}
		p.Mountpoint = fs.Target

		sizeBytes, _ := ParseSizeBytes(fs.Size.String())
		usedBytes, _ := ParseSizeBytes(fs.Used.String())
		if sizeBytes > 0 && fs.Used.String() != "" {
			used := usedBytes
			free := uint64(0)
			if sizeBytes > usedBytes {
				free = sizeBytes - usedBytes
			}
			p.UsedSpaceBytes = &used
			p.FreeSpaceBytes = &free
		}
	}
	return nil
}

// ApplyProcMounts is a fallback for hosts without findmnt: it parses the
// /proc/mounts text format (device mountpoint fstype options dump pass).
func ApplyProcMounts(inv *model.Inventory, contents string) {
	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device, mountpoint := fields[0], fields[1]
		_, p := inv.GetPartitionByPath(device)
		if p == nil {
			continue
		}
		p.Mountpoint = mountpoint
	}
}

// ApplyDfOutput parses `df -B1 --output=source,used,avail` text output,
// filling in used/free space when findmnt didn't already supply it.
func ApplyDfOutput(inv *model.Inventory, contents string) {
	scanner := bufio.NewScanner(strings.NewReader(contents))
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header line
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		_, p := inv.GetPartitionByPath(fields[0])
		if p == nil || p.UsedSpaceBytes != nil {
			continue
		}
		used, _ := ParseSizeBytes(fields[1])
		avail, _ := ParseSizeBytes(fields[2])
		p.UsedSpaceBytes = &used
		p.FreeSpaceBytes = &avail
	}
}
