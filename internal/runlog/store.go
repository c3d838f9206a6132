package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    dataset        TEXT NOT NULL,
    mode           TEXT NOT NULL,
    status         TEXT NOT NULL,
    frames_total   INTEGER NOT NULL DEFAULT 0,
    frames_written INTEGER NOT NULL DEFAULT 0,
    write_failures INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT NOT NULL DEFAULT '',
    started_at     TEXT NOT NULL,
    finished_at    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset, started_at);
`

// ErrNotFound indicates the requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk database location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a new run in the running state and returns its id.
func (s *Store) Begin(ctx context.Context, dataset, mode string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, mode, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, dataset, mode, StatusRunning, now)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish marks a run completed with its final counters.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	return s.finish(ctx, id, StatusCompleted, outcome, "")
}

// Fail marks a run failed, keeping whatever counters accumulated before the
// failure so partial output stays attributable.
func (s *Store) Fail(ctx context.Context, id string, outcome Outcome, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return s.finish(ctx, id, StatusFailed, outcome, message)
}

func (s *Store) finish(ctx context.Context, id string, status Status, outcome Outcome, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, frames_total = ?, frames_written = ?,
            write_failures = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status, outcome.FramesTotal, outcome.FramesWritten,
		outcome.WriteFailures, message, now, id)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, mode, status, frames_total, frames_written,
            write_failures, error_message, started_at, finished_at
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return run, nil
}

// List returns runs newest-first, bounded by limit (0 means no bound).
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, dataset, mode, status, frames_total, frames_written,
            write_failures, error_message, started_at, finished_at
        FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var run Run
	var started, finished string
	err := row.Scan(&run.ID, &run.Dataset, &run.Mode, &run.Status,
		&run.FramesTotal, &run.FramesWritten, &run.WriteFailures,
		&run.ErrorMessage, &started, &finished)
	if err != nil {
		return nil, err
	}
	if run.StartedAt, err = parseTimestamp(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finished != "" {
		if run.FinishedAt, err = parseTimestamp(finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	return &run, nil
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
