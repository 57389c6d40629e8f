package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deepseq/evalrun/internal/report"
)

// Run is one recorded submission
type Run struct {
	RunID        string    `json:"run_id"`
	Name         string    `json:"name,omitempty"`
	Program      string    `json:"program"`
	Script       string    `json:"script"`
	Dataset      string    `json:"dataset,omitempty"`
	Model        string    `json:"model,omitempty"`
	Args         []string  `json:"args,omitempty"`
	ExitCode     int       `json:"exit_code"`
	ExitReason   string    `json:"exit_reason"`
	SoftStopSent bool      `json:"soft_stop_sent"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	DurationSec  float64   `json:"duration_seconds"`
}

// Store keeps a local record of past runs in SQLite
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the history database
func Open(dbPath string) (*Store, error) {
	// WAL plus a busy timeout so a concurrent `evalrun history` read
	// does not trip over a submit writing its record.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		name TEXT,
		program TEXT NOT NULL,
		script TEXT NOT NULL,
		dataset TEXT,
		model TEXT,
		args TEXT,
		exit_code INTEGER NOT NULL,
		exit_reason TEXT NOT NULL,
		soft_stop_sent BOOLEAN NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		duration_seconds REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores the outcome of a finished run
func (s *Store) Record(r *report.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args, err := json.Marshal(r.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, name, program, script, dataset, model, args, exit_code,
		 exit_reason, soft_stop_sent, started_at, completed_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Name, r.Program, r.Script, r.Dataset, r.Model, string(args),
		r.ExitCode, string(r.ExitReason), r.SoftStopSent, r.StartTime, r.EndTime,
		r.Duration.Seconds())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first
func (s *Store) Recent(limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT run_id, name, program, script, dataset, model, args, exit_code,
		       exit_reason, soft_stop_sent, started_at, completed_at, duration_seconds
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var argsJSON string
		err := rows.Scan(&run.RunID, &run.Name, &run.Program, &run.Script,
			&run.Dataset, &run.Model, &argsJSON, &run.ExitCode, &run.ExitReason,
			&run.SoftStopSent, &run.StartedAt, &run.CompletedAt, &run.DurationSec)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if argsJSON != "" && argsJSON != "null" {
			if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
				return nil, fmt.Errorf("failed to unmarshal args for %s: %w", run.RunID, err)
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Get returns one run by ID
func (s *Store) Get(runID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var run Run
	var argsJSON string
	err := s.db.QueryRow(`
		SELECT run_id, name, program, script, dataset, model, args, exit_code,
		       exit_reason, soft_stop_sent, started_at, completed_at, duration_seconds
		FROM runs WHERE run_id = ?
	`, runID).Scan(&run.RunID, &run.Name, &run.Program, &run.Script,
		&run.Dataset, &run.Model, &argsJSON, &run.ExitCode, &run.ExitReason,
		&run.SoftStopSent, &run.StartedAt, &run.CompletedAt, &run.DurationSec)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	if argsJSON != "" && argsJSON != "null" {
		if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args for %s: %w", runID, err)
		}
	}
	return &run, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
