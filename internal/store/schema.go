package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite run store.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,

    -- Shape parameters and time grid
    h REAL NOT NULL,
    gamma REAL NOT NULL,
    horizon REAL NOT NULL,
    step_size REAL NOT NULL,

    -- JSON array fixing the column order of samples
    nodes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    t REAL NOT NULL,
    node TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (run_id, t, node)
);

CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id, t);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

// InitSchema creates the schema if needed and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, SchemaVersion); err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	}
	return nil
}
