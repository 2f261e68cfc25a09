package backend

import (
	"context"
	"encoding/json"

	"diskforge/internal/model"
	"diskforge/sysexec"
)

// smartctlJSON mirrors the subset of `smartctl -j -a <device>` output this
// backend actually consumes; smartctl's JSON schema carries far more than
// this, but the core only needs health/temperature/power-on-hours/the two
// reallocation counters.
type smartctlJSON struct {
	SmartStatus struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
	Temperature struct {
		Current int `json:"current"`
	} `json:"temperature"`
	PowerOnTime struct {
		Hours int `json:"hours"`
	} `json:"power_on_time"`
	AtaSmartAttributes struct {
		Table []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
			Raw  struct {
				Value int64 `json:"value"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes"`
}

const (
	attrReallocatedSectorCount = 5
	attrPendingSectorCount     = 197
)

// collectSMART runs smartctl against path and maps its JSON output onto
// model.SMARTInfo. A device with no SMART support (smartctl exits non-zero
// with no parseable JSON) is reported as Available=false rather than an
// error, since "no SMART data" is routine for virtual/USB/loop devices.
func collectSMART(ctx context.Context, exec sysexec.Executor, path string) (*model.SMARTInfo, error) {
	out, err := exec.Output(ctx, "smartctl", "-j", "-a", path)
	if len(out) == 0 {
		return &model.SMARTInfo{Available: false}, nil
	}

	var raw smartctlJSON
	if jsonErr := json.Unmarshal(out, &raw); jsonErr != nil {
		return &model.SMARTInfo{Available: false}, nil
	}
	_ = err // smartctl can exit non-zero while still emitting useful JSON

	info := &model.SMARTInfo{
		Available:          true,
		Healthy:            raw.SmartStatus.Passed,
		TemperatureCelsius: raw.Temperature.Current,
		PowerOnHours:       uint64(raw.PowerOnTime.Hours),
		Raw:                map[string]any{},
	}

	var rawMap map[string]any
	if jsonErr := json.Unmarshal(out, &rawMap); jsonErr == nil {
		info.Raw = rawMap
	}

	for _, attr := range raw.AtaSmartAttributes.Table {
		switch attr.ID {
		case attrReallocatedSectorCount:
			info.ReallocatedSectors = uint64(attr.Raw.Value)
		case attrPendingSectorCount:
			info.PendingSectors = uint64(attr.Raw.Value)
		}
	}
	return info, nil
}
