package index

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 2

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL DEFAULT 'default',
  started_at_utc TEXT NOT NULL,
  finished_at_utc TEXT NOT NULL,
  file_count INTEGER NOT NULL DEFAULT 0,
  type_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_key, finished_at_utc);

CREATE TABLE IF NOT EXISTS hierarchy_edges (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  parent TEXT NOT NULL,
  child TEXT NOT NULL,
  PRIMARY KEY (run_id, parent, child)
);

CREATE TABLE IF NOT EXISTS overrides (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  signature TEXT NOT NULL,
  PRIMARY KEY (run_id, signature)
);

CREATE TABLE IF NOT EXISTS failures (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  component TEXT NOT NULL,
  file_path TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS call_bindings (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  file_path TEXT NOT NULL,
  line_number INTEGER NOT NULL,
  call_name TEXT NOT NULL,
  target TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_call_bindings_target ON call_bindings(run_id, target);
ALTER TABLE runs ADD COLUMN call_count INTEGER NOT NULL DEFAULT 0;
ALTER TABLE runs ADD COLUMN resolved_call_count INTEGER NOT NULL DEFAULT 0;
`,
	},
}

// EnsureSchema applies pending migrations, one transaction each.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
