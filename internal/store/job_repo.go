package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"diskforge/internal/job"
)

// JobRecord is a persisted snapshot of a job, taken at completion (or on
// explicit save during a long run). It does not carry progress — progress is
// JobRunner's in-memory concern, not a durable one.
type JobRecord struct {
	ID          string
	Name        string
	Description string
	Priority    job.JobPriority
	Status      job.JobStatus
	Result      any
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// JobRepo persists job history.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new job-history repository.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Save inserts a new job-history record.
func (r *JobRepo) Save(rec *JobRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	_, err = r.db.conn.Exec(`
		INSERT INTO job_history (id, name, description, priority, status, result, error, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Description, rec.Priority, string(rec.Status), string(resultJSON), rec.Error,
		rec.CreatedAt, rec.StartedAt, rec.CompletedAt)
	return err
}

// Update refreshes the status/result/timestamps of an existing record.
func (r *JobRepo) Update(rec *JobRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	_, err = r.db.conn.Exec(`
		UPDATE job_history SET status = ?, result = ?, error = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`, string(rec.Status), string(resultJSON), rec.Error, rec.StartedAt, rec.CompletedAt, rec.ID)
	return err
}

// Get retrieves a single job-history record by ID.
func (r *JobRepo) Get(id string) (*JobRecord, error) {
	row := r.db.conn.QueryRow(`
		SELECT id, name, description, priority, status, result, error, created_at, started_at, completed_at
		FROM job_history WHERE id = ?
	`, id)
	return scanJobRecord(row)
}

// List retrieves job-history records newest-first, paginated.
func (r *JobRepo) List(limit, offset int) ([]*JobRecord, error) {
	rows, err := r.db.conn.Query(`
		SELECT id, name, description, priority, status, result, error, created_at, started_at, completed_at
		FROM job_history
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*JobRecord
	for rows.Next() {
		rec, err := scanJobRecordRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobRecord(row *sql.Row) (*JobRecord, error) {
	return scanJobRecordInto(row)
}

func scanJobRecordRows(rows *sql.Rows) (*JobRecord, error) {
	return scanJobRecordInto(rows)
}

func scanJobRecordInto(s rowScanner) (*JobRecord, error) {
	var rec JobRecord
	var status, resultJSON string
	if err := s.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.Priority, &status,
		&resultJSON, &rec.Error, &rec.CreatedAt, &rec.StartedAt, &rec.CompletedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = job.JobStatus(status)
	if resultJSON != "" && resultJSON != "null" {
		json.Unmarshal([]byte(resultJSON), &rec.Result)
	}
	return &rec, nil
}
