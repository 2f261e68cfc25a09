package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// OperationRecord is one entry in a SessionReport's operations list.
type OperationRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	JobID           string    `json:"job_id"`
	JobName         string    `json:"job_name"`
	JobDescription  string    `json:"job_description"`
	Success         bool      `json:"success"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// ErrorRecord is one entry in a SessionReport's errors list.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id"`
	Error     string    `json:"error"`
}

// DangerModeEvent is one entry in a SessionReport's danger_mode_events list.
type DangerModeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
}

// Summary is the aggregate counts computed from a report's operations/errors/
// warnings at the moment it's serialized.
type Summary struct {
	TotalOperations      int `json:"total_operations"`
	SuccessfulOperations int `json:"successful_operations"`
	FailedOperations     int `json:"failed_operations"`
	TotalErrors          int `json:"total_errors"`
	TotalWarnings        int `json:"total_warnings"`
}

// Report is the full audit record a Session accumulates and writes on Close.
type Report struct {
	SessionID        string            `json:"session_id"`
	StartedAt        time.Time         `json:"started_at"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	Operations       []OperationRecord `json:"operations"`
	DangerModeEvents []DangerModeEvent `json:"danger_mode_events"`
	Errors           []ErrorRecord     `json:"errors"`
	Warnings         []string          `json:"warnings"`
	ConfigSnapshot   any               `json:"config_snapshot"`
}

// reportDocument is the wire shape: Report plus its computed duration_seconds
// and summary, matching the sidecar/report schema exactly.
type reportDocument struct {
	SessionID        string            `json:"session_id"`
	StartedAt        time.Time         `json:"started_at"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	DurationSeconds  *float64          `json:"duration_seconds,omitempty"`
	Operations       []OperationRecord `json:"operations"`
	DangerModeEvents []DangerModeEvent `json:"danger_mode_events"`
	Errors           []ErrorRecord     `json:"errors"`
	Warnings         []string          `json:"warnings"`
	ConfigSnapshot   any               `json:"config_snapshot"`
	Summary          Summary           `json:"summary"`
}

func (r *Report) summary() Summary {
	s := Summary{
		TotalOperations: len(r.Operations),
		TotalErrors:     len(r.Errors),
		TotalWarnings:   len(r.Warnings),
	}
	for _, op := range r.Operations {
		if op.Success {
			s.SuccessfulOperations++
		} else {
			s.FailedOperations++
		}
	}
	return s
}

func (r *Report) document() reportDocument {
	var duration *float64
	if r.EndedAt != nil {
		d := r.EndedAt.Sub(r.StartedAt).Seconds()
		duration = &d
	}
	return reportDocument{
		SessionID:        r.SessionID,
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		DurationSeconds:  duration,
		Operations:       r.Operations,
		DangerModeEvents: r.DangerModeEvents,
		Errors:           r.Errors,
		Warnings:         r.Warnings,
		ConfigSnapshot:   r.ConfigSnapshot,
		Summary:          r.summary(),
	}
}

// Save writes the report to path atomically: marshalled to a temp file in
// the same directory, then renamed into place, so a reader never observes a
// half-written report.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r.document(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
