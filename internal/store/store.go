// Package store persists hole fill results to a sqlite database so runs
// can be inspected after the fact.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/typeforge/typeforge/internal/holes"
)

// Store is a sqlite-backed log of fill results. It implements
// holes.Recorder.
type Store struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt
}

// FillRecord is one persisted fill outcome.
type FillRecord struct {
	ID         string
	RunID      string
	HoleName   string
	Position   string
	Type       string
	Code       string
	Success    bool
	Attempts   int
	Err        string
	RecordedAt time.Time
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	// sqlite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing store statements: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		id          TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL,
		hole_name   TEXT NOT NULL,
		position    TEXT NOT NULL,
		type        TEXT NOT NULL,
		code        TEXT NOT NULL,
		success     INTEGER NOT NULL,
		attempts    INTEGER NOT NULL,
		error       TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id, recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	stmt, err := s.db.Prepare(`
	INSERT INTO fills (id, run_id, hole_name, position, type, code, success, attempts, error, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	s.insertStmt = stmt
	return nil
}

// RecordFill implements holes.Recorder.
func (s *Store) RecordFill(runID string, result holes.FillResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	typeText := ""
	if result.InferredType.Name != "" {
		typeText = result.InferredType.String()
	}

	_, err := s.insertStmt.Exec(
		uuid.NewString(),
		runID,
		result.Hole.Name,
		result.Hole.Position(),
		typeText,
		result.Code,
		result.Success,
		result.Attempts,
		result.Err,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording fill for %s: %w", result.Hole.Name, err)
	}
	return nil
}

// Fills returns the recorded results for one run, oldest first.
func (s *Store) Fills(runID string) ([]FillRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
	SELECT id, run_id, hole_name, position, type, code, success, attempts, error, recorded_at
	FROM fills
	WHERE run_id = ?
	ORDER BY recorded_at
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying fills for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []FillRecord
	for rows.Next() {
		var r FillRecord
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.HoleName, &r.Position, &r.Type,
			&r.Code, &r.Success, &r.Attempts, &r.Err, &r.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning fill row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Runs returns the distinct run identifiers, most recent first.
func (s *Store) Runs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
	SELECT run_id
	FROM fills
	GROUP BY run_id
	ORDER BY max(recorded_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
