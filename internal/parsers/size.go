package parsers

import (
	"strconv"
	"strings"
)

// unitMultipliers maps a size-string unit suffix to its byte multiplier.
// lsblk/sfdisk emit plain integers when -b is given, but blkid and some
// sfdisk dumps still report "N units" strings, so both shapes are handled.
var unitMultipliers = map[string]uint64{
	"":   1,
	"b":  1,
	"k":  1024,
	"kb": 1024,
	"kib": 1024,
	"m":  1024 * 1024,
	"mb": 1024 * 1024,
	"mib": 1024 * 1024,
	"g":  1024 * 1024 * 1024,
	"gb": 1024 * 1024 * 1024,
	"gib": 1024 * 1024 * 1024,
	"t":  1024 * 1024 * 1024 * 1024,
	"tb": 1024 * 1024 * 1024 * 1024,
	"tib": 1024 * 1024 * 1024 * 1024,
}

// ParseSizeBytes accepts an integer, a bare numeric string, or a "N unit"
// string and returns the size in bytes. Unknown units produce 0 and a
// reported error string for the caller to add to Inventory.ParseErrors;
// ParseSizeBytes itself never fails hard.
func ParseSizeBytes(raw string) (uint64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ""
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return n, ""
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, "empty size string"
	}
	numPart := fields[0]
	unit := ""
	if len(fields) > 1 {
		unit = strings.ToLower(fields[1])
	} else {
		// No space between number and unit, e.g. "500G".
		i := 0
		for i < len(numPart) && (numPart[i] >= '0' && numPart[i] <= '9' || numPart[i] == '.') {
			i++
		}
		unit = strings.ToLower(numPart[i:])
		numPart = numPart[:i]
	}

	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, "unparseable size: " + raw
	}
	mult, ok := unitMultipliers[unit]
	if !ok {
		return 0, "unknown size unit in: " + raw
	}
	return uint64(f * float64(mult)), ""
}
