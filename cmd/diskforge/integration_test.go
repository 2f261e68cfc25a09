package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diskforge/internal/config"
)

// writeTestConfig saves a config.DiskForgeConfig rooted entirely under
// t.TempDir() so a run never touches $HOME/.diskforge, and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SessionDirectory = filepath.Join(dir, "sessions")
	cfg.Logging.LogDirectory = filepath.Join(dir, "logs")
	cfg.Logging.ConsoleEnabled = false
	cfg.Logging.FileEnabled = false

	path := filepath.Join(dir, "config.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save test config: %v", err)
	}
	return path
}

// captureStdout redirects os.Stdout for the duration of fn and returns what
// was written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return string(out)
}

// TestStatusCommandReportsDangerModeDisabled exercises the full command tree
// (flag parsing, Session construction, Safety Gate query, JSON rendering)
// without touching any Platform Backend, so it runs on any host.
func TestStatusCommandReportsDangerModeDisabled(t *testing.T) {
	cfgPath := writeTestConfig(t)

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "--json", "status"})
	out := captureStdout(t, func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	var doc map[string]string
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("status output is not valid JSON (%v): %q", err, out)
	}
	if doc["danger_mode"] != "DISABLED" {
		t.Fatalf("danger_mode = %q, want DISABLED", doc["danger_mode"])
	}
	if doc["session_id"] == "" {
		t.Fatal("expected a non-empty session_id")
	}
}

// TestDeletePartitionWithoutConfirmIsDenied checks that a destructive command
// is rejected before it ever reaches the Platform Backend when --confirm is
// missing, and that the denial names the exact token the operator must type.
func TestDeletePartitionWithoutConfirmIsDenied(t *testing.T) {
	cfgPath := writeTestConfig(t)

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "delete-partition", "/dev/loop0"})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected delete-partition without --confirm to fail")
	}
	if !strings.Contains(err.Error(), "DESTROY-/DEV/LOOP0") {
		t.Fatalf("error %q does not mention the expected confirmation token", err.Error())
	}
}

// TestCreatePartitionDeniedWithoutDangerMode checks that CREATE operations
// skip the --confirm requirement but still require danger mode to be armed,
// and that the denial is reported as a failed job (exit 1) rather than a
// cobra usage error.
func TestCreatePartitionDeniedWithoutDangerMode(t *testing.T) {
	cfgPath := writeTestConfig(t)

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "--json", "create-partition", "/dev/loop0", "--size-bytes", "1048576"})
	_ = captureStdout(t, func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected cobra error: %v", err)
		}
	})
	if exitCode != exitOperationFailure {
		t.Fatalf("exitCode = %d, want %d", exitCode, exitOperationFailure)
	}
}
