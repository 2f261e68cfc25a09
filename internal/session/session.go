// Package session orchestrates a single DiskForge run: one Configuration,
// one Safety Gate, one Job Runner, and a lazily-constructed Platform Backend
// handle, all under one SessionLogger sink and one audit Report.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"diskforge/internal/backend"
	"diskforge/internal/config"
	"diskforge/internal/job"
	"diskforge/internal/logging"
	"diskforge/internal/model"
	"diskforge/internal/safety"
	"diskforge/sysexec"
)

// Spec names a job for the Session's bookkeeping: JobRunner itself is
// metadata-agnostic (it only knows about the job.Job interface), so the
// name/description/priority/operation-type a job is tracked and gated under
// travel alongside it here rather than living on the Job interface.
type Spec struct {
	Name          string
	Description   string
	Priority      job.JobPriority
	OperationType model.OperationType
	Job           job.Job
}

// Session is the main entry point for a DiskForge run.
type Session struct {
	ID        string
	Config    *config.DiskForgeConfig
	StartedAt time.Time

	Safety *safety.Gate
	Jobs   *job.JobRunner

	logger     *slog.Logger
	sessLogger *sessionLogger
	report     *Report

	backend     backend.Backend
	useLoopback bool
}

// New starts a Session. A nil cfg loads the default configuration.
func New(cfg *config.DiskForgeConfig) (*Session, error) {
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure config directories: %w", err)
	}

	id := uuid.NewString()
	shortID := id
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	logOutput, err := buildLogOutput(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:  parseLevel(cfg.Logging.Level),
		Format: formatName(cfg.Logging),
		Output: logOutput,
	}).With("session_id", id)

	sessLog := newSessionLogger(
		filepath.Join(cfg.SessionDirectory, fmt.Sprintf("sessionlog_%s.json", shortID)),
		logger,
	)

	started := time.Now()
	s := &Session{
		ID:         id,
		Config:     cfg,
		StartedAt:  started,
		Safety:     safety.NewGate(time.Duration(cfg.Safety.ConfirmationTimeoutSeconds) * time.Second),
		Jobs:       job.NewJobRunner(),
		logger:     logger,
		sessLogger: sessLog,
		report: &Report{
			SessionID:      id,
			StartedAt:      started,
			ConfigSnapshot: cfg,
		},
	}

	logger.Info("session started", "danger_mode", string(s.Safety.Mode()))
	sessLog.Info("Session started", map[string]any{"session_id": id})

	return s, nil
}

// buildLogOutput composes the console/file sinks LoggingConfig asks for into
// a single io.Writer: both, either, or (if neither is enabled) os.Stderr so
// logging never silently goes nowhere.
func buildLogOutput(cfg config.LoggingConfig) (io.Writer, error) {
	var writers []io.Writer
	if cfg.ConsoleEnabled {
		writers = append(writers, os.Stderr)
	}
	if cfg.FileEnabled {
		if err := os.MkdirAll(cfg.LogDirectory, 0o755); err != nil {
			return nil, err
		}
		logFile := filepath.Join(cfg.LogDirectory, fmt.Sprintf("diskforge_%s.log", time.Now().Format("20060102")))
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		return os.Stderr, nil
	}
	return io.MultiWriter(writers...), nil
}

// formatName maps the boolean JSONFormat flag to logging.Config's string
// selector.
func formatName(cfg config.LoggingConfig) string {
	if cfg.JSONFormat {
		return "json"
	}
	return "text"
}

func parseLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Platform lazily constructs the platform-specific backend handle on first
// access, then returns the same handle for the Session's remaining lifetime.
func (s *Session) Platform() backend.Backend {
	if s.backend == nil {
		s.backend = newPlatformBackend(s.useLoopback)
	}
	return s.backend
}

// UseLoopbackBackend switches the Session's platform backend to the
// loop-device variant, which accepts /dev/loopN paths and is the only one
// whose destructive paths are safe to exercise against a file rather than
// real hardware. Must be called before the first Platform() access.
func (s *Session) UseLoopbackBackend() {
	s.useLoopback = true
}

// newPlatformBackend selects a concrete Backend based on the host OS. Only
// Linux is implemented; other platforms get a descriptive panic at first use
// rather than a silently wrong backend, matching the interface's "unknown
// operation" stance on unsupported calls.
func newPlatformBackend(loopback bool) backend.Backend {
	switch runtime.GOOS {
	case "linux":
		exec := sysexec.NewExecutor()
		if loopback {
			return backend.NewLoopbackBackend(exec)
		}
		return backend.NewLinuxBackend(exec)
	default:
		panic(fmt.Sprintf("diskforge: no platform backend implemented for GOOS=%s", runtime.GOOS))
	}
}

// DangerMode returns the Safety Gate's current state.
func (s *Session) DangerMode() safety.DangerMode {
	return s.Safety.Mode()
}

// EnableDangerMode arms danger mode, truncating the acknowledgment to 50
// characters before it is logged (it may otherwise contain the full phrase
// an operator pasted, which the log stream doesn't need in full).
func (s *Session) EnableDangerMode(ack string) bool {
	success := s.Safety.EnableDangerMode(ack)

	s.report.DangerModeEvents = append(s.report.DangerModeEvents, DangerModeEvent{
		Timestamp: time.Now(),
		Action:    "enable_attempt",
		Success:   success,
	})

	truncated := ack
	if len(truncated) > 50 {
		truncated = truncated[:50]
	}
	if success {
		s.sessLogger.Warn("Danger mode enabled", map[string]any{"acknowledgment": truncated})
	} else {
		s.sessLogger.Info("Danger mode enable attempt failed", nil)
	}
	return success
}

// DisableDangerMode disarms danger mode unconditionally.
func (s *Session) DisableDangerMode() {
	s.Safety.DisableDangerMode()
	s.report.DangerModeEvents = append(s.report.DangerModeEvents, DangerModeEvent{
		Timestamp: time.Now(),
		Action:    "disable",
		Success:   true,
	})
	s.sessLogger.Info("Danger mode disabled", nil)
}

// RunJob consults the Safety Gate, executes spec.Job synchronously, and
// tracks the outcome in the session report.
func (s *Session) RunJob(spec Spec) job.JobResult[any] {
	allowed, reason := s.Safety.IsOperationAllowed(spec.OperationType)
	if !allowed {
		now := time.Now()
		result := job.JobResult[any]{
			Success:   false,
			Error:     reason,
			StartTime: now,
			EndTime:   now,
		}
		s.trackOperation("", spec, result)
		return result
	}

	s.sessLogger.Info("Executing job", map[string]any{
		"job_name": spec.Name,
		"plan":     spec.Job.GetPlan(),
	})

	result := s.Jobs.RunSync(spec.Name, spec.Description, spec.Priority, spec.Job)
	s.trackOperation("", spec, result)
	return result
}

// SubmitJob is the asynchronous variant of RunJob: it submits and starts the
// job, returning its ID immediately. It performs the same up-front allowed
// check RunJob does, so a denied submission never reaches the runner; the
// runner's Start itself only validates the job.
func (s *Session) SubmitJob(spec Spec) (string, error) {
	allowed, reason := s.Safety.IsOperationAllowed(spec.OperationType)
	if !allowed {
		return "", fmt.Errorf("%s", reason)
	}

	id := s.Jobs.Submit(spec.Name, spec.Description, spec.Priority, spec.Job)
	if err := s.Jobs.Start(id); err != nil {
		return "", err
	}
	return id, nil
}

// TrackResult records a job submitted through SubmitJob into the session
// report once its caller has waited for a result. RunJob does this itself
// for the synchronous path; SubmitJob's caller owns the job's lifetime (it
// may cancel it, wait on it, or abandon it) so it decides when, or whether,
// to have it appear in the report.
func (s *Session) TrackResult(jobID string, spec Spec, result job.JobResult[any]) {
	s.trackOperation(jobID, spec, result)
}

func (s *Session) trackOperation(jobID string, spec Spec, result job.JobResult[any]) {
	record := OperationRecord{
		Timestamp:      time.Now(),
		JobID:          jobID,
		JobName:        spec.Name,
		JobDescription: spec.Description,
		Success:        result.Success,
	}
	if d, ok := result.DurationSeconds(); ok {
		record.DurationSeconds = &d
	}
	if result.Error != "" {
		record.Error = result.Error
		s.report.Errors = append(s.report.Errors, ErrorRecord{
			Timestamp: time.Now(),
			JobID:     jobID,
			Error:     result.Error,
		})
	}
	if len(result.Warnings) > 0 {
		record.Warnings = result.Warnings
		s.report.Warnings = append(s.report.Warnings, result.Warnings...)
	}
	s.report.Operations = append(s.report.Operations, record)

	if result.Success {
		s.sessLogger.Info("Operation completed", map[string]any{"job_name": spec.Name})
	} else {
		s.sessLogger.Error("Operation failed", map[string]any{"job_name": spec.Name, "error": result.Error})
	}
}

// Report returns the report being built; it is not yet finalized until
// Close sets EndedAt.
func (s *Session) Report() *Report {
	return s.report
}

// Close finalizes ended_at, persists the session log and report, and
// returns the report's path.
func (s *Session) Close() (string, error) {
	s.Jobs.Close()

	now := time.Now()
	s.report.EndedAt = &now

	if err := s.sessLogger.Save(); err != nil {
		return "", fmt.Errorf("save session log: %w", err)
	}

	shortID := s.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	reportPath := filepath.Join(s.Config.SessionDirectory, fmt.Sprintf("report_%s.json", shortID))
	if err := s.report.Save(reportPath); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	s.logger.Info("session closed",
		"duration_seconds", now.Sub(s.StartedAt).Seconds(),
		"report_path", reportPath,
	)
	return reportPath, nil
}
