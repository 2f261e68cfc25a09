package backend

import (
	"context"
	"fmt"
	"strings"

	"diskforge/sysexec"
)

// LoopbackBackend wraps LinuxBackend to exercise destructive paths against
// scratch files via losetup instead of real hardware: the CLI's
// --enable-loop-devices flag selects it to run destructive operations
// (wipe, format, clone) against regular files backed by /dev/loopN, so
// ValidateDevicePath accepts /dev/loopN paths and AttachScratchFile
// attaches a backing file to a free loop device.
type LoopbackBackend struct {
	*LinuxBackend
}

// NewLoopbackBackend returns a backend identical to LinuxBackend except
// that it also accepts /dev/loopN device paths.
func NewLoopbackBackend(exec sysexec.Executor) *LoopbackBackend {
	return &LoopbackBackend{LinuxBackend: NewLinuxBackend(exec)}
}

func (b *LoopbackBackend) ValidateDevicePath(path string) error {
	if strings.HasPrefix(path, "/dev/loop") {
		return nil
	}
	return b.LinuxBackend.ValidateDevicePath(path)
}

// AttachScratchFile associates backingFile with a free loop device via
// losetup and returns the resulting /dev/loopN path.
func (b *LoopbackBackend) AttachScratchFile(ctx context.Context, backingFile string) (string, error) {
	out, err := b.exec.Output(ctx, "losetup", "--find", "--show", backingFile)
	if err != nil {
		return "", fmt.Errorf("losetup attach %s: %w", backingFile, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// DetachLoopDevice releases a loop device previously returned by
// AttachScratchFile.
func (b *LoopbackBackend) DetachLoopDevice(ctx context.Context, loopPath string) error {
	if err := b.exec.Run(ctx, "losetup", "--detach", loopPath); err != nil {
		return fmt.Errorf("losetup detach %s: %w", loopPath, err)
	}
	return nil
}
