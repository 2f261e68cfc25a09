package backend

import (
	"context"

	"github.com/shirou/gopsutil/v4/host"
)

// PlatformString returns an "os-platform-version" tag (e.g.
// "linux-ubuntu-22.04") for Inventory.Platform, falling back to just
// runtime.GOOS-shaped info if host.Info can't determine more.
func PlatformString(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		return "linux"
	}
	parts := []string{info.OS}
	if info.Platform != "" {
		parts = append(parts, info.Platform)
	}
	if info.PlatformVersion != "" {
		parts = append(parts, info.PlatformVersion)
	}
	return joinNonEmpty(parts, "-")
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
