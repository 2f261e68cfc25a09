package parsers

import (
	"encoding/json"
	"fmt"
	"time"

	"diskforge/internal/model"
)

// lsblkDevice mirrors one entry (disk or partition) from
// `lsblk -J -b -o NAME,PATH,MODEL,SERIAL,SIZE,ROTA,TYPE,FSTYPE,LABEL,
// PTTYPE,PARTTYPE,MOUNTPOINT,TRAN`.
type lsblkDevice struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Model      string        `json:"model"`
	Serial     string        `json:"serial"`
	Size       json.Number   `json:"size"`
	Rota       *bool         `json:"rota"`
	Type       string        `json:"type"`
	FSType     string        `json:"fstype"`
	Label      string        `json:"label"`
	PTType     string        `json:"pttype"`
	PartType   string        `json:"parttype"`
	Mountpoint string        `json:"mountpoint"`
	Tran       string        `json:"tran"`
	Children   []lsblkDevice `json:"children,omitempty"`
}

// ParseLsblkJSON normalizes the output of `lsblk -J -b` into an Inventory.
// Non-fatal issues (unparseable sizes, unrecognized units) are recorded in
// Inventory.ParseErrors rather than returned as an error.
func ParseLsblkJSON(data []byte, platform string) (*model.Inventory, error) {
	var root struct {
		BlockDevices []lsblkDevice `json:"blockdevices"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse lsblk: %w", err)
	}

	inv := &model.Inventory{CapturedAt: time.Now(), Platform: platform}

	for _, d := range root.BlockDevices {
		if d.Type != "disk" && d.Type != "loop" {
			continue
		}
		inv.Disks = append(inv.Disks, buildDisk(d, inv))
	}
	return inv, nil
}

func buildDisk(d lsblkDevice, inv *model.Inventory) *model.Disk {
	size, errMsg := ParseSizeBytes(d.Size.String())
	if errMsg != "" {
		inv.AddParseError(fmt.Sprintf("disk %s: %s", d.Path, errMsg))
	}

	disk := model.NewDisk(d.Path, size)
	disk.Model = d.Model
	disk.Serial = d.Serial
	disk.DiskType = ClassifyDiskType(d.Name, d.Tran, d.Rota)
	disk.PartitionStyle = model.ParsePartitionStyle(d.PTType)

	for _, c := range d.Children {
		if c.Type != "part" {
			continue
		}
		disk.Partitions = append(disk.Partitions, buildPartition(c, inv))
	}
	return disk
}

func buildPartition(c lsblkDevice, inv *model.Inventory) *model.Partition {
	size, errMsg := ParseSizeBytes(c.Size.String())
	if errMsg != "" {
		inv.AddParseError(fmt.Sprintf("partition %s: %s", c.Path, errMsg))
	}

	p := &model.Partition{
		DevicePath:        c.Path,
		PartitionTypeUUID: c.PartType,
		SizeBytes:         size,
		FileSystem:        model.ParseFileSystem(c.FSType),
		Label:             c.Label,
		Mountpoint:        c.Mountpoint,
		Flags:             model.NewFlagSet(),
	}
	if n, ok := PartitionNumber(c.Path); ok {
		p.Number = n
	}
	for _, f := range FlagsFromGUID(c.PartType) {
		p.Flags.Add(f)
	}
	return p
}
