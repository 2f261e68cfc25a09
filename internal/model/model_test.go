package model

import (
	"encoding/json"
	"testing"
)

func TestDiskDerivedFields(t *testing.T) {
	d := NewDisk("/dev/sda", 1_000_000_000)
	d.Partitions = []*Partition{
		{DevicePath: "/dev/sda1", Number: 1, StartSector: 0, EndSector: 999, SizeBytes: 500_000_000},
	}

	if got := d.TotalPartitionSize(); got != 500_000_000 {
		t.Errorf("TotalPartitionSize() = %d, want 500000000", got)
	}
	if got := d.UnallocatedBytes(); got != 500_000_000 {
		t.Errorf("UnallocatedBytes() = %d, want 500000000", got)
	}
	if got := d.SizeSectors(); got != 1_000_000_000/512 {
		t.Errorf("SizeSectors() = %d, want %d", got, 1_000_000_000/512)
	}
}

func TestUnallocatedBytesFloorsAtZero(t *testing.T) {
	d := NewDisk("/dev/sdb", 100)
	d.Partitions = []*Partition{
		{DevicePath: "/dev/sdb1", SizeBytes: 150},
	}
	if got := d.UnallocatedBytes(); got != 0 {
		t.Errorf("UnallocatedBytes() = %d, want 0", got)
	}
}

func TestDiskValidateRejectsOvercommit(t *testing.T) {
	d := NewDisk("/dev/sdc", 100)
	d.Partitions = []*Partition{{DevicePath: "/dev/sdc1", SizeBytes: 200, EndSector: 10}}
	if err := d.Validate(); err == nil {
		t.Fatal("expected Validate to reject a disk whose partitions exceed its size")
	}
}

func TestPartitionSizeSectors(t *testing.T) {
	p := Partition{StartSector: 2048, EndSector: 206847}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := p.SizeSectors(), uint64(204800); got != want {
		t.Errorf("SizeSectors() = %d, want %d", got, want)
	}
}

func TestPartitionValidateRejectsInvertedRange(t *testing.T) {
	p := Partition{DevicePath: "/dev/sda1", StartSector: 100, EndSector: 50}
	if err := p.Validate(); err == nil {
		t.Fatal("expected Validate to reject end_sector < start_sector")
	}
}

func TestParseFileSystemAliases(t *testing.T) {
	cases := map[string]FileSystem{
		"ext4":              FileSystemExt4,
		"EXT4":              FileSystemExt4,
		"vfat":              FileSystemFAT32,
		"linux_raid_member": FileSystemRaw,
		"lvm2_member":       FileSystemRaw,
		"crypto_luks":       FileSystemRaw,
		"bogus":             FileSystemUnknown,
		"":                  FileSystemUnknown,
	}
	for in, want := range cases {
		if got := ParseFileSystem(in); got != want {
			t.Errorf("ParseFileSystem(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePartitionStyleNumericCodes(t *testing.T) {
	if got := ParsePartitionStyle("2"); got != PartitionStyleGPT {
		t.Errorf("ParsePartitionStyle(2) = %v, want GPT", got)
	}
	if got := ParsePartitionStyle("1"); got != PartitionStyleMBR {
		t.Errorf("ParsePartitionStyle(1) = %v, want MBR", got)
	}
}

func TestPartitionFlagsIsBootIsSystem(t *testing.T) {
	p := Partition{Flags: NewFlagSet(FlagESP)}
	if !p.IsBoot() {
		t.Error("ESP flag should imply IsBoot")
	}
	p2 := Partition{Flags: NewFlagSet(FlagSystem)}
	if !p2.IsSystem() {
		t.Error("SYSTEM flag should imply IsSystem")
	}
}

func TestPartitionJSONRoundTrip(t *testing.T) {
	p := Partition{
		DevicePath: "/dev/sda1",
		Number:     1,
		EndSector:  100,
		FileSystem: FileSystemExt4,
		Flags:      NewFlagSet(FlagBoot, FlagSystem),
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Partition
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Flags.Has(FlagBoot) || !got.Flags.Has(FlagSystem) {
		t.Errorf("round-tripped flags = %v, want BOOT and SYSTEM", got.Flags.Slice())
	}
	if got.DevicePath != p.DevicePath || got.Number != p.Number {
		t.Errorf("round-tripped partition = %+v, want %+v", got, p)
	}
}

func TestInventoryLookups(t *testing.T) {
	d := NewDisk("/dev/sda", 1000)
	d.Partitions = []*Partition{{DevicePath: "/dev/sda1", Number: 1, Mountpoint: "/"}}
	inv := &Inventory{Disks: []*Disk{d}}

	if inv.GetDiskByPath("/dev/sda") == nil {
		t.Error("expected to find disk by path")
	}
	gotDisk, gotPart := inv.GetPartitionByPath("/dev/sda1")
	if gotDisk != d || gotPart != d.Partitions[0] {
		t.Error("GetPartitionByPath did not return the expected pair")
	}
	if mounts := inv.GetMountedPaths(); len(mounts) != 1 || mounts[0] != "/" {
		t.Errorf("GetMountedPaths() = %v, want [/]", mounts)
	}
}
