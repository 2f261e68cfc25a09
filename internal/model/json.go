package model

import "encoding/json"

// MarshalJSON renders FlagSet as a sorted-free string array.
func (fs FlagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.Slice())
}

// UnmarshalJSON restores a FlagSet from a string array.
func (fs *FlagSet) UnmarshalJSON(data []byte) error {
	var flags []PartitionFlag
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	*fs = NewFlagSet(flags...)
	return nil
}

// MarshalJSON renders a Partition with its flags as a JSON array.
func (p Partition) MarshalJSON() ([]byte, error) {
	return json.Marshal(partitionJSON{
		DevicePath:        p.DevicePath,
		Number:            p.Number,
		PartitionTypeUUID: p.PartitionTypeUUID,
		StartSector:       p.StartSector,
		EndSector:         p.EndSector,
		SizeBytes:         p.SizeBytes,
		FileSystem:        p.FileSystem,
		Label:             p.Label,
		UUID:              p.UUID,
		Flags:             p.Flags.Slice(),
		UsedSpaceBytes:    p.UsedSpaceBytes,
		FreeSpaceBytes:    p.FreeSpaceBytes,
		Mountpoint:        p.Mountpoint,
	})
}

// UnmarshalJSON restores a Partition, rebuilding its FlagSet.
func (p *Partition) UnmarshalJSON(data []byte) error {
	var pj partitionJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	*p = Partition{
		DevicePath:        pj.DevicePath,
		Number:            pj.Number,
		PartitionTypeUUID: pj.PartitionTypeUUID,
		StartSector:       pj.StartSector,
		EndSector:         pj.EndSector,
		SizeBytes:         pj.SizeBytes,
		FileSystem:        pj.FileSystem,
		Label:             pj.Label,
		UUID:              pj.UUID,
		Flags:             NewFlagSet(pj.Flags...),
		UsedSpaceBytes:    pj.UsedSpaceBytes,
		FreeSpaceBytes:    pj.FreeSpaceBytes,
		Mountpoint:        pj.Mountpoint,
	}
	return nil
}
