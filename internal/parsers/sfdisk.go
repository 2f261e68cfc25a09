package parsers

import (
	"encoding/json"
	"fmt"

	"diskforge/internal/model"
)

// sfdiskDump mirrors the shape of `sfdisk --json <device>`.
type sfdiskDump struct {
	PartitionTable struct {
		Label      string `json:"label"`
		Device     string `json:"device"`
		SectorSize uint64 `json:"sectorsize"`
		Partitions []struct {
			Node  string `json:"node"`
			Start uint64 `json:"start"`
			Size  uint64 `json:"size"`
			Type  string `json:"type"`
			UUID  string `json:"uuid"`
		} `json:"partitions"`
	} `json:"partitiontable"`
}

// ApplySfdiskDump fills in geometry (start/end sector, sector size) that
// lsblk alone doesn't carry, matching partitions by device path. Partitions
// present in the dump but absent from the disk are recorded as a parse
// error; the reverse (disk partitions absent from the dump) is ignored.
func ApplySfdiskDump(disk *model.Disk, data []byte, inv *model.Inventory) error {
	var dump sfdiskDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("parse sfdisk dump: %w", err)
	}

	if dump.PartitionTable.SectorSize != 0 {
		disk.SectorSize = dump.PartitionTable.SectorSize
	}
	if disk.PartitionStyle == model.PartitionStyleUnknown && dump.PartitionTable.Label != "" {
		disk.PartitionStyle = model.ParsePartitionStyle(dump.PartitionTable.Label)
	}

	byPath := make(map[string]*model.Partition, len(disk.Partitions))
	for _, p := range disk.Partitions {
		byPath[p.DevicePath] = p
	}

	for _, sp := range dump.PartitionTable.Partitions {
		p, ok := byPath[sp.Node]
		if !ok {
			inv.AddParseError(fmt.Sprintf("sfdisk: partition %s not present in lsblk output", sp.Node))
			continue
		}
		p.StartSector = sp.Start
		if sp.Size > 0 {
			p.EndSector = sp.Start + sp.Size - 1
		}
		if p.PartitionTypeUUID == "" {
			p.PartitionTypeUUID = sp.Type
		}
		for _, f := range FlagsFromGUID(sp.Type) {
			p.Flags.Add(f)
		}
	}
	return nil
}
