package manifest

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
	"github.com/tmcpro/docusign-exporter/internal/export"
)

// Store records export runs and their per-envelope outcomes in
// SQLite. It is an optional collaborator: the core pipeline produces
// no manifest on its own.
type Store struct {
	db *sql.DB
}

// Run is one recorded export run.
type Run struct {
	ID         string
	StartedAt  time.Time
	From       time.Time
	To         time.Time
	Discovered int
	Succeeded  int
}

// Open opens (and migrates) the manifest database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate manifest db: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS export_runs (
			id          TEXT PRIMARY KEY,
			started_at  TIMESTAMP NOT NULL,
			from_date   TIMESTAMP NOT NULL,
			to_date     TIMESTAMP NOT NULL,
			discovered  INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS export_items (
			run_id      TEXT NOT NULL REFERENCES export_runs(id),
			envelope_id TEXT NOT NULL,
			ok          INTEGER NOT NULL,
			bytes       INTEGER NOT NULL,
			error       TEXT,
			PRIMARY KEY (run_id, envelope_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_export_items_run ON export_items(run_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun writes one run and all of its outcomes in a single
// transaction and returns the generated run id.
func (s *Store) RecordRun(startedAt, from, to time.Time, discovered int, outcomes []export.Outcome) (string, error) {
	runID := uuid.NewString()

	succeeded := 0
	for _, o := range outcomes {
		if o.OK {
			succeeded++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO export_runs (id, started_at, from_date, to_date, discovered, succeeded)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, startedAt.UTC(), from.UTC(), to.UTC(), discovered, succeeded,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, o := range outcomes {
		_, err = tx.Exec(
			`INSERT INTO export_items (run_id, envelope_id, ok, bytes, error)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, o.EnvelopeID, o.OK, o.Bytes, o.Err,
		)
		if err != nil {
			return "", fmt.Errorf("insert item %s: %w", o.EnvelopeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// GetRun loads one recorded run by id.
func (s *Store) GetRun(runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(
		`SELECT id, started_at, from_date, to_date, discovered, succeeded
		 FROM export_runs WHERE id = ?`, runID,
	).Scan(&r.ID, &r.StartedAt, &r.From, &r.To, &r.Discovered, &r.Succeeded)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListOutcomes loads the outcomes recorded for one run, failures
// included, ordered by envelope id.
func (s *Store) ListOutcomes(runID string) ([]export.Outcome, error) {
	rows, err := s.db.Query(
		`SELECT envelope_id, ok, bytes, error
		 FROM export_items WHERE run_id = ? ORDER BY envelope_id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []export.Outcome
	for rows.Next() {
		var o export.Outcome
		var errMsg sql.NullString
		if err := rows.Scan(&o.EnvelopeID, &o.OK, &o.Bytes, &errMsg); err != nil {
			return nil, err
		}
		o.Err = errMsg.String
		out = append(out, o)
	}
	return out, rows.Err()
}
