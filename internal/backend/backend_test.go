package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diskforge/internal/job"
	"diskforge/internal/model"
	"diskforge/sysexec"
)

func TestValidateDevicePath(t *testing.T) {
	b := NewLinuxBackend(sysexec.NewMock())
	if err := b.ValidateDevicePath(""); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
	if err := b.ValidateDevicePath("not-a-device"); err == nil {
		t.Fatal("expected a non-/dev path to be rejected")
	}
	if err := b.ValidateDevicePath("/dev/sda"); err != nil {
		t.Fatalf("expected /dev/sda to validate, got %v", err)
	}
}

func TestLoopbackBackendAcceptsLoopDevices(t *testing.T) {
	b := NewLoopbackBackend(sysexec.NewMock())
	if err := b.ValidateDevicePath("/dev/loop0"); err != nil {
		t.Fatalf("expected /dev/loop0 to validate, got %v", err)
	}
	if err := b.ValidateDevicePath("not-a-device"); err == nil {
		t.Fatal("expected non-device paths to still be rejected")
	}
}

func TestMkfsCommandSelectsToolByFilesystem(t *testing.T) {
	tool, args, err := mkfsCommand(model.FormatOptions{PartitionPath: "/dev/sda1", FileSystem: model.FileSystemExt4, Label: "data"})
	if err != nil {
		t.Fatal(err)
	}
	if tool != "mkfs.ext4" {
		t.Fatalf("tool = %q, want mkfs.ext4", tool)
	}
	if len(args) == 0 || args[len(args)-1] != "/dev/sda1" {
		t.Fatalf("expected device path as last arg, got %v", args)
	}

	if _, _, err := mkfsCommand(model.FormatOptions{FileSystem: model.FileSystemZFS}); err == nil {
		t.Fatal("expected an unsupported filesystem to error")
	}
}

func TestCopyStreamHashesAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src")
	dstPath := filepath.Join(dir, "dst")

	payload := bytes.Repeat([]byte("disk-data"), 10000)
	if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dstPath, make([]byte, len(payload)), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	dst, err := os.OpenFile(dstPath, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	jc := job.NewJobContext()
	var lastProgress job.JobProgress
	jc.AddProgressCallback(func(p job.JobProgress) { lastProgress = p })

	checksum, bytesDone, err := copyStream(context.Background(), jc, src, dst, 1024, true)
	if err != nil {
		t.Fatal(err)
	}
	if bytesDone != uint64(len(payload)) {
		t.Fatalf("bytesDone = %d, want %d", bytesDone, len(payload))
	}
	if checksum == "" {
		t.Fatal("expected a non-empty checksum")
	}
	if lastProgress.BytesProcessed == 0 {
		t.Fatal("expected progress callback to have fired")
	}

	ok, msg := verifyByReread(dstPath, checksum, bytesDone)
	if !ok {
		t.Fatalf("expected verification to pass, got %q", msg)
	}

	ok, _ = verifyByReread(dstPath, "not-the-real-hash", bytesDone)
	if ok {
		t.Fatal("expected verification against a wrong hash to fail")
	}
}

func TestCopyStreamRespectsCancellation(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src")
	if err := os.WriteFile(srcPath, bytes.Repeat([]byte{0}, 1<<20), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	jc := job.NewJobContext()
	jc.Cancel()

	var discard bytes.Buffer
	_, _, err = copyStream(context.Background(), jc, src, &discard, 1024, false)
	if err == nil {
		t.Fatal("expected cancellation to abort the copy")
	}
}

func TestGuardDestructiveWriteRejectsSmallerTarget(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.img")
	target := filepath.Join(dir, "target.img")
	if err := os.WriteFile(source, make([]byte, 0), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, make([]byte, 4*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := &model.Inventory{}
	_, ok, msg := guardDestructiveWrite(inv, target, 8*1024*1024)
	if ok {
		t.Fatal("expected a target smaller than the source to be rejected")
	}
	if !strings.Contains(msg, "8388608") || !strings.Contains(msg, "4194304") {
		t.Fatalf("expected both byte sizes in the message, got %q", msg)
	}
}

func TestGuardDestructiveWriteBlocksSystemDisk(t *testing.T) {
	inv := &model.Inventory{Disks: []*model.Disk{
		{DevicePath: "/dev/sda", SizeBytes: 1 << 30, IsSystemDisk: true},
	}}
	_, ok, msg := guardDestructiveWrite(inv, "/dev/sda", 0)
	if ok || msg != "Cannot write to system disk" {
		t.Fatalf("guardDestructiveWrite(system disk) = (ok=%v, msg=%q), want blocked", ok, msg)
	}
}

func TestGuardDestructiveWriteBlocksMountedTarget(t *testing.T) {
	inv := &model.Inventory{Disks: []*model.Disk{
		{DevicePath: "/dev/sdb", SizeBytes: 1 << 30, Partitions: []*model.Partition{
			{DevicePath: "/dev/sdb1", SizeBytes: 1 << 20, Mountpoint: "/mnt/data"},
		}},
	}}
	_, ok, _ := guardDestructiveWrite(inv, "/dev/sdb", 0)
	if ok {
		t.Fatal("expected a disk with a mounted partition to be rejected")
	}
}

func TestGuardDestructiveWriteAllowsSufficientTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.img")
	if err := os.WriteFile(target, make([]byte, 8*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	size, ok, msg := guardDestructiveWrite(&model.Inventory{}, target, 4*1024*1024)
	if !ok {
		t.Fatalf("expected a sufficiently large target to pass, got %q", msg)
	}
	if size != 8*1024*1024 {
		t.Fatalf("targetSizeBytes = %d, want 8388608", size)
	}
}

func TestZFSMembershipParsesZpoolStatus(t *testing.T) {
	exec := sysexec.NewMock()
	exec.SetOutput("zpool", []byte("  pool: tank\n state: ONLINE\n  config:\n\n\tNAME        STATE\n\ttank        ONLINE\n\t  /dev/sdb1 ONLINE\n"))

	pool, member := ZFSMembership(context.Background(), exec, "/dev/sdb1")
	if !member || pool != "tank" {
		t.Fatalf("ZFSMembership = (%q, %v), want (tank, true)", pool, member)
	}

	_, member = ZFSMembership(context.Background(), exec, "/dev/sdz9")
	if member {
		t.Fatal("expected an unrelated device to report no membership")
	}
}
