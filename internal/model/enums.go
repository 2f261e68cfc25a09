package model

// PartitionStyle is the on-disk partition table format.
type PartitionStyle string

const (
	PartitionStyleGPT     PartitionStyle = "GPT"
	PartitionStyleMBR     PartitionStyle = "MBR"
	PartitionStyleRaw     PartitionStyle = "RAW"
	PartitionStyleUnknown PartitionStyle = "UNKNOWN"
)

// ParsePartitionStyle accepts the string and numeric spellings vendor tools use.
func ParsePartitionStyle(s string) PartitionStyle {
	switch s {
	case "gpt", "2":
		return PartitionStyleGPT
	case "dos", "mbr", "msdos", "1":
		return PartitionStyleMBR
	case "loop":
		return PartitionStyleRaw
	default:
		return PartitionStyleUnknown
	}
}

// DiskType classifies the underlying storage technology.
type DiskType string

const (
	DiskTypeHDD     DiskType = "HDD"
	DiskTypeSSD     DiskType = "SSD"
	DiskTypeNVMe    DiskType = "NVME"
	DiskTypeUSB     DiskType = "USB"
	DiskTypeVirtual DiskType = "VIRTUAL"
	DiskTypeRAID    DiskType = "RAID"
	DiskTypeLoop    DiskType = "LOOP"
	DiskTypeUnknown DiskType = "UNKNOWN"
)

// PartitionFlag is a boolean attribute of a partition.
type PartitionFlag string

const (
	FlagBoot     PartitionFlag = "BOOT"
	FlagESP      PartitionFlag = "ESP"
	FlagHidden   PartitionFlag = "HIDDEN"
	FlagSystem   PartitionFlag = "SYSTEM"
	FlagActive   PartitionFlag = "ACTIVE"
	FlagLVM      PartitionFlag = "LVM"
	FlagRAID     PartitionFlag = "RAID"
	FlagSwap     PartitionFlag = "SWAP"
	FlagMSFTRes  PartitionFlag = "MSFTRES"
	FlagMSFTData PartitionFlag = "MSFTDATA"
	FlagDiag     PartitionFlag = "DIAG"
	FlagReadOnly PartitionFlag = "READONLY"
)

// FlagSet is an unordered set of partition flags.
type FlagSet map[PartitionFlag]struct{}

// NewFlagSet builds a FlagSet from the given flags, deduplicating.
func NewFlagSet(flags ...PartitionFlag) FlagSet {
	fs := make(FlagSet, len(flags))
	for _, f := range flags {
		fs[f] = struct{}{}
	}
	return fs
}

// Has reports whether the flag is present.
func (fs FlagSet) Has(f PartitionFlag) bool {
	_, ok := fs[f]
	return ok
}

// Add inserts a flag.
func (fs FlagSet) Add(f PartitionFlag) {
	fs[f] = struct{}{}
}

// Slice returns the flags in no particular order.
func (fs FlagSet) Slice() []PartitionFlag {
	out := make([]PartitionFlag, 0, len(fs))
	for f := range fs {
		out = append(out, f)
	}
	return out
}

// Compression is an image compression codec.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// Suffix returns the file extension this compression appends to image paths.
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionLZ4:
		return ".lz4"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// OperationType classifies a job for the Safety Gate's allow-list.
type OperationType string

const (
	OperationReadOnly OperationType = "READ_ONLY"
	OperationCreate   OperationType = "CREATE"
	OperationModify   OperationType = "MODIFY"
	OperationDelete   OperationType = "DELETE"
	OperationClone    OperationType = "CLONE"
	OperationRestore  OperationType = "RESTORE"
)
