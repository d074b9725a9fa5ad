// Package runstore persists finished plan and inline runs in SQLite so they
// can be listed and inspected later.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

const (
	ModePlan   = "plan"
	ModeInline = "inline"
)

// Run is one stored run.
type Run struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries,omitempty"`
}

// Entry is one step (plan mode) or turn (inline mode) of a run.
type Entry struct {
	Step   int                    `json:"step"`
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params,omitempty"`
	Result interface{}            `json:"result"`
	Status string                 `json:"status"`
}

// Config holds run store configuration
type Config struct {
	DBPath string
	Logger zerolog.Logger
}

// Store is a SQLite-backed run history.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New opens (creating if needed) the database at cfg.DBPath.
func New(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			task TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

		CREATE TABLE IF NOT EXISTS run_entries (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			action TEXT NOT NULL,
			params_json TEXT NOT NULL,
			result_json TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (run_id, step),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores run and its entries in one transaction.
func (s *Store) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, task, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Task, run.Status, run.Error, run.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, e := range run.Entries {
		params, err := json.Marshal(e.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params of step %d: %w", e.Step, err)
		}
		result, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result of step %d: %w", e.Step, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_entries (run_id, step, action, params_json, result_json, status) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, e.Step, e.Action, string(params), string(result), e.Status,
		); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", e.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug().Str("run_id", run.ID).Str("mode", run.Mode).Int("entries", len(run.Entries)).Msg("Run saved")
	return nil
}

// List returns the most recent runs, newest first, without entries.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, task, status, error, created_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its entries in step order.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, task, status, error, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, action, params_json, result_json, status FROM run_entries WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e              Entry
			params, result string
		)
		if err := rows.Scan(&e.Step, &e.Action, &params, &result, &e.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
			return nil, fmt.Errorf("corrupt params of step %d: %w", e.Step, err)
		}
		if err := json.Unmarshal([]byte(result), &e.Result); err != nil {
			return nil, fmt.Errorf("corrupt result of step %d: %w", e.Step, err)
		}
		run.Entries = append(run.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		created int64
	)
	if err := sc.Scan(&run.ID, &run.Mode, &run.Task, &run.Status, &run.Error, &created); err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.UnixMilli(created)
	return run, nil
}
