package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema.
const schemaV1 = `
-- Finished runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    label TEXT,
    seed INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    reason TEXT,
    ticks INTEGER NOT NULL,
    total_events INTEGER NOT NULL,
    config TEXT NOT NULL,         -- JSON engine config
    summary TEXT NOT NULL,        -- JSON summary
    history TEXT,                 -- JSON array of tick summaries
    created_at TEXT NOT NULL
);

-- Events emitted during a run, in emission order
CREATE TABLE IF NOT EXISTS run_events (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    month INTEGER NOT NULL,
    category TEXT NOT NULL,
    severity TEXT NOT NULL,
    agent_id TEXT,
    title TEXT NOT NULL,
    description TEXT,
    effects TEXT,                 -- JSON object
    PRIMARY KEY (run_id, seq)
);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT DEFAULT (datetime('now'))
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_events_severity ON run_events(run_id, severity);
`

// InitSchema initializes or migrates the database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion == 0 {
		return createSchema(ctx, db)
	}

	if currentVersion < SchemaVersion {
		return migrateSchema(ctx, db, currentVersion)
	}
	if currentVersion > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}

	return nil
}

// getSchemaVersion returns the current schema version, or 0 if not initialized.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version sql.NullInt64
	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

// createSchema creates the initial schema.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// migrateSchema runs the migrations between fromVersion and SchemaVersion.
// Version 1 is the only version so far.
func migrateSchema(ctx context.Context, db *sql.DB, fromVersion int) error {
	return fmt.Errorf("no migration path from schema version %d to %d", fromVersion, SchemaVersion)
}

// ValidateIntegrity runs SQLite's integrity check and verifies that no
// event references a missing run.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	var orphans int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM run_events e
		LEFT JOIN runs r ON r.id = e.run_id
		WHERE r.id IS NULL
	`).Scan(&orphans)
	if err != nil {
		return fmt.Errorf("orphan check failed: %w", err)
	}
	if orphans > 0 {
		return fmt.Errorf("found %d events without a run", orphans)
	}
	return nil
}

// ResetSchema drops all tables and recreates the schema.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	tables := []string{"run_events", "runs", "schema_version"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return createSchema(ctx, db)
}
