package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Migrate brings the schema up to date, tracking progress in PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT '',
  documents INTEGER NOT NULL,
  participants INTEGER NOT NULL,
  min_raw REAL NOT NULL,
  max_raw REAL NOT NULL,
  degenerate INTEGER NOT NULL DEFAULT 0,
  weights TEXT NOT NULL DEFAULT '{}',
  issues TEXT NOT NULL DEFAULT '[]'
);`,
		`
CREATE TABLE IF NOT EXISTS results (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  filename TEXT NOT NULL,
  text TEXT NOT NULL,
  rank INTEGER NOT NULL,
  final_score INTEGER NOT NULL,
  raw_score REAL NOT NULL,
  breakdown TEXT NOT NULL,
  weighted TEXT NOT NULL,
  closest_peer TEXT NOT NULL DEFAULT '',
  closest_similarity REAL NOT NULL DEFAULT 0,
  excluded INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (run_id, position)
);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_rank ON results(run_id, rank);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
