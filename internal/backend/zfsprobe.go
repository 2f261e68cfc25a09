package backend

import (
	"context"
	"strings"

	"diskforge/sysexec"
)

// ZFSMembership reports whether devicePath participates in a ZFS pool, and
// the pool's name if so. DiskForge never creates, destroys, or mutates ZFS
// pools or datasets — recognizing zfs_member partitions (so the core can
// warn rather than silently treat them as plain raw partitions) is the only
// ZFS concern in scope.
func ZFSMembership(ctx context.Context, exec sysexec.Executor, devicePath string) (pool string, member bool) {
	out, err := exec.Output(ctx, "zpool", "status", "-P")
	if err != nil {
		return "", false
	}

	var currentPool string
	for _, line := range strings.Split(string(out), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "pool:"):
			currentPool = strings.TrimSpace(strings.TrimPrefix(trimmed, "pool:"))
		case strings.Contains(trimmed, devicePath):
			return currentPool, true
		}
	}
	return "", false
}
