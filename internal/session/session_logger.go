package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// logEntry is one buffered SessionLogger record, written out verbatim in
// the session log file's "entries" array.
type logEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"-"`
}

// MarshalJSON flattens Fields alongside the fixed keys, matching the
// teacher's structured-logging texture of attaching arbitrary kwargs.
func (e logEntry) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"timestamp": e.Timestamp,
		"level":     e.Level,
		"message":   e.Message,
	}
	for k, v := range e.Fields {
		m[k] = v
	}
	return json.Marshal(m)
}

// sessionLogger writes every record to both the Session's *slog.Logger and
// an in-memory buffer, the latter flushed to sessionFile on Save. It is the
// per-operation audit trail; the slog logger is the live/ops-facing stream.
type sessionLogger struct {
	sessionFile string
	logger      *slog.Logger
	entries     []logEntry
}

func newSessionLogger(sessionFile string, logger *slog.Logger) *sessionLogger {
	return &sessionLogger{sessionFile: sessionFile, logger: logger}
}

func (l *sessionLogger) log(level, message string, fields map[string]any) {
	l.entries = append(l.entries, logEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	})

	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	switch level {
	case "DEBUG":
		l.logger.Debug(message, args...)
	case "WARNING":
		l.logger.Warn(message, args...)
	case "ERROR":
		l.logger.Error(message, args...)
	default:
		l.logger.Info(message, args...)
	}
}

func (l *sessionLogger) Info(message string, fields map[string]any)  { l.log("INFO", message, fields) }
func (l *sessionLogger) Warn(message string, fields map[string]any)  { l.log("WARNING", message, fields) }
func (l *sessionLogger) Error(message string, fields map[string]any) { l.log("ERROR", message, fields) }
func (l *sessionLogger) Debug(message string, fields map[string]any) { l.log("DEBUG", message, fields) }

// Save writes the buffered entries plus a summary to sessionFile.
func (l *sessionLogger) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.sessionFile), 0o755); err != nil {
		return fmt.Errorf("create session log dir: %w", err)
	}

	errs, warns := 0, 0
	for _, e := range l.entries {
		switch e.Level {
		case "ERROR":
			errs++
		case "WARNING":
			warns++
		}
	}

	doc := map[string]any{
		"session_file": l.sessionFile,
		"entries":      l.entries,
		"summary": map[string]any{
			"total_entries": len(l.entries),
			"errors":        errs,
			"warnings":      warns,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session log: %w", err)
	}
	return os.WriteFile(l.sessionFile, data, 0o644)
}
