package model

import "strings"

// FileSystem is a known filesystem kind.
type FileSystem string

const (
	FileSystemNTFS    FileSystem = "NTFS"
	FileSystemFAT32   FileSystem = "FAT32"
	FileSystemFAT16   FileSystem = "FAT16"
	FileSystemExFAT   FileSystem = "EXFAT"
	FileSystemExt2    FileSystem = "EXT2"
	FileSystemExt3    FileSystem = "EXT3"
	FileSystemExt4    FileSystem = "EXT4"
	FileSystemXFS     FileSystem = "XFS"
	FileSystemBtrfs   FileSystem = "BTRFS"
	FileSystemZFS     FileSystem = "ZFS"
	FileSystemSwap    FileSystem = "SWAP"
	FileSystemAPFS    FileSystem = "APFS"
	FileSystemHFSPlus FileSystem = "HFS_PLUS"
	FileSystemReFS    FileSystem = "REFS"
	FileSystemRaw     FileSystem = "RAW"
	FileSystemUnknown FileSystem = "UNKNOWN"
)

// fsAliases maps lower-cased vendor-tool spellings to a FileSystem.
var fsAliases = map[string]FileSystem{
	"ntfs":              FileSystemNTFS,
	"fat32":             FileSystemFAT32,
	"vfat":              FileSystemFAT32,
	"fat16":             FileSystemFAT16,
	"fat":               FileSystemFAT16,
	"exfat":             FileSystemExFAT,
	"ext2":              FileSystemExt2,
	"ext3":              FileSystemExt3,
	"ext4":              FileSystemExt4,
	"xfs":               FileSystemXFS,
	"btrfs":             FileSystemBtrfs,
	"zfs":               FileSystemZFS,
	"zfs_member":        FileSystemZFS,
	"swap":              FileSystemSwap,
	"apfs":              FileSystemAPFS,
	"hfsplus":           FileSystemHFSPlus,
	"hfs+":              FileSystemHFSPlus,
	"refs":              FileSystemReFS,
	"linux_raid_member": FileSystemRaw,
	"lvm2_member":       FileSystemRaw,
	"crypto_luks":       FileSystemRaw,
	"raw":               FileSystemRaw,
}

// ParseFileSystem resolves a case-insensitive vendor-tool spelling (including
// known aliases) to a FileSystem, falling back to UNKNOWN.
func ParseFileSystem(s string) FileSystem {
	if s == "" {
		return FileSystemUnknown
	}
	if fs, ok := fsAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return fs
	}
	return FileSystemUnknown
}
