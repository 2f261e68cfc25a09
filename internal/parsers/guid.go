// Package parsers normalizes vendor disk-tool output (lsblk, blkid, findmnt,
// df, sfdisk) into the Inventory Model. Extraction (which tool to run) lives
// in the platform backend; normalization (what its output means) lives here
// so it is testable without a real disk.
package parsers

import (
	"strings"

	"diskforge/internal/model"
)

// gptTypeGUIDs maps known GPT partition type GUIDs (upper-cased, no braces)
// to the flag they imply. Unknown GUIDs never add a flag.
var gptTypeGUIDs = map[string]model.PartitionFlag{
	"C12A7328-F81F-11D2-BA4B-00A0C93EC93B": model.FlagESP,
	"21686148-6449-6E6F-744E-656564454649": model.FlagBoot, // BIOS boot
	"0FC63DAF-8483-4772-8E79-3D69D8477DE4": "",             // Linux filesystem data, no flag
	"0657FD6D-A4AB-43C4-84E5-0933C84B4F4F": model.FlagSwap,
	"E6D6D379-F507-44C2-A23C-238F2A3DF928": model.FlagLVM,
	"A19D880F-08B6-4743-A10F-C91B1044FA02": model.FlagRAID,
	"E3C9E316-0B5C-4DB8-817D-F92DF00215AE": model.FlagMSFTRes,
	"EBD0A0A2-B9E5-4433-87C0-68B6B72699C7": model.FlagMSFTData,
	"DE94BBA4-06D1-4D40-A16A-BFD50179D6AC": model.FlagDiag,
}

// FlagsFromGUID returns the flags a known GPT type GUID implies. An unknown
// or empty GUID contributes nothing.
func FlagsFromGUID(guid string) []model.PartitionFlag {
	key := strings.ToUpper(strings.Trim(strings.TrimSpace(guid), "{}"))
	flag, ok := gptTypeGUIDs[key]
	if !ok || flag == "" {
		return nil
	}
	return []model.PartitionFlag{flag}
}
