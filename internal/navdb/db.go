// Package navdb persists pipeline jobs and their alignment reports in
// sqlite, backing the upload/process front end. The schema is managed by
// golang-migrate from migrations embedded in the binary.
package navdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/navsync/internal/nav/timesync"
)

// Job statuses.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when a job ID has no row.
var ErrNotFound = errors.New("navdb: job not found")

type DB struct {
	*sql.DB
}

// Job is one uploaded dataset and its processing state.
type Job struct {
	ID           string
	Status       string
	PositionFile string
	InertialFile string
	FusedFile    string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewDB opens (creating if needed) the sqlite database at path and applies
// any pending migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// CreateJob inserts a new uploaded job and returns its generated ID.
func (db *DB) CreateJob(positionFile, inertialFile, fusedFile string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO jobs (job_id, status, position_file, inertial_file, fused_file)
		VALUES (?, ?, ?, ?, ?)`,
		id, StatusUploaded, positionFile, inertialFile, fusedFile)
	if err != nil {
		return "", fmt.Errorf("navdb: create job: %w", err)
	}
	return id, nil
}

// GetJob fetches one job by ID.
func (db *DB) GetJob(id string) (*Job, error) {
	row := db.QueryRow(`
		SELECT job_id, status, position_file, inertial_file, fused_file, error, created_at, updated_at
		FROM jobs WHERE job_id = ?`, id)

	var j Job
	err := row.Scan(&j.ID, &j.Status, &j.PositionFile, &j.InertialFile, &j.FusedFile,
		&j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("navdb: get job: %w", err)
	}
	return &j, nil
}

// ListJobs returns all jobs, newest first.
func (db *DB) ListJobs() ([]Job, error) {
	rows, err := db.Query(`
		SELECT job_id, status, position_file, inertial_file, fused_file, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("navdb: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Status, &j.PositionFile, &j.InertialFile, &j.FusedFile,
			&j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("navdb: scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// SetJobStatus updates a job's status and error message.
func (db *DB) SetJobStatus(id, status, errMsg string) error {
	res, err := db.Exec(`
		UPDATE jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE job_id = ?`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("navdb: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteJob removes a job and its report.
func (db *DB) DeleteJob(id string) error {
	if _, err := db.Exec(`DELETE FROM reports WHERE job_id = ?`, id); err != nil {
		return fmt.Errorf("navdb: delete report: %w", err)
	}
	res, err := db.Exec(`DELETE FROM jobs WHERE job_id = ?`, id)
	if err != nil {
		return fmt.Errorf("navdb: delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveReport stores the alignment report of a completed run, replacing any
// previous report for the job.
func (db *DB) SaveReport(jobID, method string, resampledCount int, r timesync.AlignmentReport) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO reports (
			job_id, method, resampled_count,
			total_pairs, max_time_diff, min_time_diff, avg_time_diff,
			pairs_within_5ms, pairs_within_10ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, method, resampledCount,
		r.TotalPairs, r.MaxTimeDiff, r.MinTimeDiff, r.AvgTimeDiff,
		r.PairsWithin5ms, r.PairsWithin10ms)
	if err != nil {
		return fmt.Errorf("navdb: save report: %w", err)
	}
	return nil
}

// GetReport fetches the stored report for a job, along with the method used
// and resampled record count.
func (db *DB) GetReport(jobID string) (timesync.AlignmentReport, string, int, error) {
	row := db.QueryRow(`
		SELECT method, resampled_count,
			total_pairs, max_time_diff, min_time_diff, avg_time_diff,
			pairs_within_5ms, pairs_within_10ms
		FROM reports WHERE job_id = ?`, jobID)

	var (
		r      timesync.AlignmentReport
		method string
		count  int
	)
	err := row.Scan(&method, &count,
		&r.TotalPairs, &r.MaxTimeDiff, &r.MinTimeDiff, &r.AvgTimeDiff,
		&r.PairsWithin5ms, &r.PairsWithin10ms)
	if errors.Is(err, sql.ErrNoRows) {
		return r, "", 0, ErrNotFound
	}
	if err != nil {
		return r, "", 0, fmt.Errorf("navdb: get report: %w", err)
	}
	return r, method, count, nil
}
