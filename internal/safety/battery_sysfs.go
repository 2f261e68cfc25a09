package safety

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sysfsBatteryProvider reads /sys/class/power_supply, the same surface
// `upower`/`acpi` consult, avoiding a shell-out for a handful of small files.
type sysfsBatteryProvider struct{}

const powerSupplyDir = "/sys/class/power_supply"

func (sysfsBatteryProvider) BatteryStatus() (present, onBattery bool, percent float64, err error) {
	entries, readErr := os.ReadDir(powerSupplyDir)
	if readErr != nil {
		return false, false, 0, nil
	}

	var batteryCapacity float64
	var batteryFound, onlineAC bool

	for _, e := range entries {
		name := e.Name()
		typePath := filepath.Join(powerSupplyDir, name, "type")
		typeData, rerr := os.ReadFile(typePath)
		if rerr != nil {
			continue
		}
		kind := strings.TrimSpace(string(typeData))

		switch kind {
		case "Battery":
			batteryFound = true
			if cap, ok := readSysfsInt(filepath.Join(powerSupplyDir, name, "capacity")); ok {
				batteryCapacity = float64(cap)
			}
		case "Mains", "USB":
			if online, ok := readSysfsInt(filepath.Join(powerSupplyDir, name, "online")); ok && online == 1 {
				onlineAC = true
			}
		}
	}

	if !batteryFound {
		return false, false, 0, nil
	}
	return true, !onlineAC, batteryCapacity, nil
}

func readSysfsInt(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return n, true
}
