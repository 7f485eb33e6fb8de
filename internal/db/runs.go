package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a load run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("load run not found")

// LoadRun is one recorded asset load.
type LoadRun struct {
	RunID        string
	BasePath     string
	Engine       string
	SHDegree     int
	Status       RunStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	TotalFiles   int
	FilesLoaded  int
	BytesFetched int64
	PointCount   int
	SplatCount   int
	Error        string
}

// Duration is zero while the run is still going.
func (r *LoadRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunOutcome carries the counters recorded when a run finishes.
type RunOutcome struct {
	FilesLoaded  int
	BytesFetched int64
	PointCount   int
	SplatCount   int
}

// RunFile is the fetch record of one asset file within a run.
type RunFile struct {
	URL        string
	Bytes      int
	DurationMs float64
	StatusCode int
	Error      string
}

// StartRun inserts a new run in the running state and returns it.
func (db *DB) StartRun(basePath, engine string, shDegree, totalFiles int) (*LoadRun, error) {
	run := &LoadRun{
		RunID:      uuid.New().String(),
		BasePath:   basePath,
		Engine:     engine,
		SHDegree:   shDegree,
		Status:     RunRunning,
		StartedAt:  time.Now(),
		TotalFiles: totalFiles,
	}
	_, err := db.Exec(`INSERT INTO load_runs (run_id, base_path, engine, sh_degree, status, started_unix_nanos, total_files)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.BasePath, run.Engine, run.SHDegree, string(run.Status), run.StartedAt.UnixNano(), run.TotalFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to insert load run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run completed.
func (db *DB) CompleteRun(runID string, out RunOutcome) error {
	return db.finishRun(runID, RunCompleted, out, "")
}

// FailRun marks a run failed with cause.
func (db *DB) FailRun(runID string, out RunOutcome, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return db.finishRun(runID, RunFailed, out, msg)
}

func (db *DB) finishRun(runID string, status RunStatus, out RunOutcome, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	res, err := db.Exec(`UPDATE load_runs
		SET status = ?, finished_unix_nanos = ?, files_loaded = ?, bytes_fetched = ?, point_count = ?, splat_count = ?, error = ?
		WHERE run_id = ?`,
		string(status), time.Now().UnixNano(), out.FilesLoaded, out.BytesFetched, out.PointCount, out.SplatCount, errVal, runID)
	if err != nil {
		return fmt.Errorf("failed to update load run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, base_path, engine, sh_degree, status, started_unix_nanos, finished_unix_nanos,
	total_files, files_loaded, bytes_fetched, point_count, splat_count, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*LoadRun, error) {
	var (
		r        LoadRun
		status   string
		started  int64
		finished sql.NullInt64
		errMsg   sql.NullString
	)
	if err := row.Scan(&r.RunID, &r.BasePath, &r.Engine, &r.SHDegree, &status, &started, &finished,
		&r.TotalFiles, &r.FilesLoaded, &r.BytesFetched, &r.PointCount, &r.SplatCount, &errMsg); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	r.StartedAt = time.Unix(0, started)
	if finished.Valid {
		t := time.Unix(0, finished.Int64)
		r.FinishedAt = &t
	}
	r.Error = errMsg.String
	return &r, nil
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(runID string) (*LoadRun, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM load_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read load run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns all runs.
func (db *DB) ListRuns(limit int) ([]LoadRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM load_runs ORDER BY started_unix_nanos DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list load runs: %w", err)
	}
	defer rows.Close()

	var runs []LoadRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// RecordFiles stores the per-file fetch records of a run in fetch order,
// replacing any recorded earlier.
func (db *DB) RecordFiles(runID string, files []RunFile) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM load_run_files WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO load_run_files (run_id, seq, url, bytes, duration_ms, status_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range files {
		var errVal sql.NullString
		if f.Error != "" {
			errVal = sql.NullString{String: f.Error, Valid: true}
		}
		if _, err := stmt.Exec(runID, i, f.URL, f.Bytes, f.DurationMs, f.StatusCode, errVal); err != nil {
			return fmt.Errorf("failed to record file %s: %w", f.URL, err)
		}
	}
	return tx.Commit()
}

// RunFiles returns the files recorded for a run in fetch order.
func (db *DB) RunFiles(runID string) ([]RunFile, error) {
	rows, err := db.Query(`SELECT url, bytes, duration_ms, status_code, error
		FROM load_run_files WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []RunFile
	for rows.Next() {
		var (
			f      RunFile
			errMsg sql.NullString
		)
		if err := rows.Scan(&f.URL, &f.Bytes, &f.DurationMs, &f.StatusCode, &errMsg); err != nil {
			return nil, err
		}
		f.Error = errMsg.String
		files = append(files, f)
	}
	return files, rows.Err()
}
