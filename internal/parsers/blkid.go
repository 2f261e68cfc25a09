package parsers

import (
	"bufio"
	"strings"

	"diskforge/internal/model"
)

// ApplyBlkidOutput parses `blkid -o export` text output (DEVNAME=...\nTYPE=
// ...\nLABEL=...\nUUID=...\nPARTUUID=...\n\n per device) and fills in
// UUID/label/filesystem where the lsblk pass left them blank.
func ApplyBlkidOutput(inv *model.Inventory, contents string) {
	scanner := bufio.NewScanner(strings.NewReader(contents))

	var devicePath string
	fields := map[string]string{}
	flush := func() {
		if devicePath == "" {
			return
		}
		_, p := inv.GetPartitionByPath(devicePath)
		if p != nil {
			if p.UUID == "" {
				p.UUID = fields["UUID"]
			}
			if p.Label == "" {
				p.Label = fields["LABEL"]
			}
			if p.FileSystem == model.FileSystemUnknown {
				p.FileSystem = model.ParseFileSystem(fields["TYPE"])
			}
		}
		devicePath = ""
		fields = map[string]string{}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if key == "DEVNAME" {
			devicePath = value
			continue
		}
		fields[key] = value
	}
	flush()
}
