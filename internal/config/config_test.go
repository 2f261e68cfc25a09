package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("default config should validate, got errors: %v", errs)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "does-not-exist.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Safety.ConfirmationTimeoutSeconds != 300 {
		t.Fatalf("expected default safety config, got %+v", cfg.Safety)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Safety.DangerModeEnabled = true
	cfg.Backup.CompressionLevel = 9
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Safety.DangerModeEnabled {
		t.Fatal("expected danger_mode_enabled to round-trip as true")
	}
	if loaded.Backup.CompressionLevel != 9 {
		t.Fatalf("compression_level = %d, want 9", loaded.Backup.CompressionLevel)
	}
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	cfg := Default()
	cfg.Backup.CompressionLevel = 99
	cfg.Logging.Level = "TRACE"
	cfg.Backup.DefaultCompression = "brotli"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := (&DiskForgeConfig{}).Save(path); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an empty/invalid config document to fail validation")
	}
}

func TestGetSessionFile(t *testing.T) {
	cfg := Default()
	cfg.SessionDirectory = "/tmp/sessions"
	got := cfg.GetSessionFile("20260729_120000")
	want := filepath.Join("/tmp/sessions", "session_20260729_120000.json")
	if got != want {
		t.Fatalf("GetSessionFile = %q, want %q", got, want)
	}
}
