// Package config loads, validates, and saves DiskForgeConfig: a single flat
// JSON document, no env-var or multi-source merging, matching the teacher's
// own flag-based configuration style (no viper/mapstructure here — there is
// nothing to merge).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"diskforge/internal/model"
)

// LoggingConfig controls a Session's slog construction.
type LoggingConfig struct {
	Level         string `json:"level"`
	FileEnabled   bool   `json:"file_enabled"`
	ConsoleEnabled bool  `json:"console_enabled"`
	JSONFormat    bool   `json:"json_format"`
	LogDirectory  string `json:"log_directory"`
}

// SafetyConfig seeds the Safety Gate's defaults.
type SafetyConfig struct {
	DangerModeEnabled        bool `json:"danger_mode_enabled"`
	RequireConfirmation      bool `json:"require_confirmation"`
	ConfirmationTimeoutSeconds int `json:"confirmation_timeout_seconds"`
	PreflightChecksEnabled   bool `json:"preflight_checks_enabled"`
	DryRunDefault            bool `json:"dry_run_default"`
	SMARTCheckEnabled        bool `json:"smart_check_enabled"`
	MountedVolumeProtection  bool `json:"mounted_volume_protection"`
	SystemDiskProtection     bool `json:"system_disk_protection"`
}

// BackupConfig controls the image-pipeline defaults.
type BackupConfig struct {
	DefaultCompression model.Compression `json:"default_compression"`
	CompressionLevel   int               `json:"compression_level"`
	VerifyAfterWrite   bool              `json:"verify_after_write"`
	ChunkSizeMB        int               `json:"chunk_size_mb"`
	TempDirectory      string            `json:"temp_directory,omitempty"`
}

// SystemBackupConfig controls which partitions a system-level backup sweeps in.
type SystemBackupConfig struct {
	IncludeRecoveryPartitions bool     `json:"include_recovery_partitions"`
	IncludeSwapPartitions     bool     `json:"include_swap_partitions"`
	IncludeHiddenPartitions   bool     `json:"include_hidden_partitions"`
	IncludeReservedPartitions bool     `json:"include_reserved_partitions"`
	RequiredMountpoints       []string `json:"required_mountpoints"`
	CapturePartitionTable     bool     `json:"capture_partition_table"`
	CaptureBootMetadata       bool     `json:"capture_boot_metadata"`
}

// UIConfig is layout-only: the core never reads it, but round-trips it so a
// GUI front-end sharing this config file doesn't lose its settings.
type UIConfig struct {
	Theme                     string `json:"theme"`
	RefreshIntervalMS         int    `json:"refresh_interval_ms"`
	ShowHiddenPartitions      bool   `json:"show_hidden_partitions"`
	ConfirmDialogTimeoutSeconds int  `json:"confirm_dialog_timeout_seconds"`
}

// DiskForgeConfig is the full configuration document.
type DiskForgeConfig struct {
	Logging          LoggingConfig       `json:"logging"`
	Safety           SafetyConfig        `json:"safety"`
	Backup           BackupConfig        `json:"backup"`
	SystemBackup     SystemBackupConfig  `json:"system_backup"`
	UI               UIConfig            `json:"ui"`
	SessionDirectory string              `json:"session_directory"`
	PluginDirectories []string           `json:"plugin_directories,omitempty"`
}

// Default returns the configuration DiskForge ships with when no config
// file exists yet.
func Default() *DiskForgeConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &DiskForgeConfig{
		Logging: LoggingConfig{
			Level:          "INFO",
			FileEnabled:    true,
			ConsoleEnabled: true,
			JSONFormat:     false,
			LogDirectory:   filepath.Join(home, ".diskforge", "logs"),
		},
		Safety: SafetyConfig{
			DangerModeEnabled:          false,
			RequireConfirmation:        true,
			ConfirmationTimeoutSeconds: 300,
			PreflightChecksEnabled:     true,
			DryRunDefault:              true,
			SMARTCheckEnabled:          true,
			MountedVolumeProtection:    true,
			SystemDiskProtection:       true,
		},
		Backup: BackupConfig{
			DefaultCompression: model.CompressionZstd,
			CompressionLevel:   3,
			VerifyAfterWrite:   true,
			ChunkSizeMB:        64,
		},
		SystemBackup: SystemBackupConfig{
			IncludeRecoveryPartitions: true,
			IncludeSwapPartitions:     false,
			IncludeHiddenPartitions:   true,
			IncludeReservedPartitions: true,
			RequiredMountpoints:       []string{"/", "/boot", "/boot/efi"},
			CapturePartitionTable:     true,
			CaptureBootMetadata:       true,
		},
		UI: UIConfig{
			Theme:                       "system",
			RefreshIntervalMS:           5000,
			ShowHiddenPartitions:        false,
			ConfirmDialogTimeoutSeconds: 30,
		},
		SessionDirectory: filepath.Join(home, ".diskforge", "sessions"),
	}
}

// DefaultPath returns $HOME/.diskforge/config.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".diskforge", "config.json")
}

// Load reads the config at path, or returns Default() if it does not exist.
// An empty path means DefaultPath().
func Load(path string) (*DiskForgeConfig, error) {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("config %s is invalid: %v", path, errs)
	}
	return cfg, nil
}

// Save writes the config to path (or DefaultPath() if empty), creating its
// parent directory as needed.
func (c *DiskForgeConfig) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// EnsureDirectories creates every directory the config names.
func (c *DiskForgeConfig) EnsureDirectories() error {
	dirs := []string{c.Logging.LogDirectory, c.SessionDirectory}
	if c.Backup.TempDirectory != "" {
		dirs = append(dirs, c.Backup.TempDirectory)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return nil
}

var validLogLevels = map[string]bool{
	"DEBUG": true, "INFO": true, "WARNING": true, "ERROR": true, "CRITICAL": true,
}

var validCompressions = map[model.Compression]bool{
	model.CompressionNone: true, model.Compression("none"): true, model.CompressionGzip: true,
	model.CompressionLZ4: true, model.CompressionZstd: true,
}

// Validate checks every field with a constrained range or enum, returning
// one message per violation (never panics, never partially applies).
func (c *DiskForgeConfig) Validate() []string {
	var errs []string

	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level: invalid value %q", c.Logging.Level))
	}
	if c.Safety.ConfirmationTimeoutSeconds < 0 {
		errs = append(errs, "safety.confirmation_timeout_seconds: must be >= 0")
	}
	if !validCompressions[c.Backup.DefaultCompression] {
		errs = append(errs, fmt.Sprintf("backup.default_compression: invalid value %q", c.Backup.DefaultCompression))
	}
	if c.Backup.CompressionLevel < 1 || c.Backup.CompressionLevel > 22 {
		errs = append(errs, "backup.compression_level: must be in [1, 22]")
	}
	if c.Backup.ChunkSizeMB < 1 || c.Backup.ChunkSizeMB > 1024 {
		errs = append(errs, "backup.chunk_size_mb: must be in [1, 1024]")
	}
	if c.UI.RefreshIntervalMS < 1000 || c.UI.RefreshIntervalMS > 60000 {
		errs = append(errs, "ui.refresh_interval_ms: must be in [1000, 60000]")
	}
	if c.SessionDirectory == "" {
		errs = append(errs, "session_directory: must not be empty")
	}

	return errs
}

// GetSessionFile returns the path for a new session report file, timestamped
// to the second.
func (c *DiskForgeConfig) GetSessionFile(timestamp string) string {
	return filepath.Join(c.SessionDirectory, fmt.Sprintf("session_%s.json", timestamp))
}
