package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// migrations contains all database migrations in order.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with layouts and runs",
		Up:          migrationV1Up,
		Down:        migrationV1Down,
	},
	{
		Version:     2,
		Description: "Add run_swaps table for accepted optimizer swaps",
		Up:          migrationV2Up,
		Down:        migrationV2Down,
	},
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS layouts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    fingerprint     TEXT NOT NULL UNIQUE,
    matrix_rows     TEXT NOT NULL,
    locked_mask     TEXT,
    created_ns      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_layouts_name ON layouts(name, created_ns);

CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    layout_id       INTEGER REFERENCES layouts(id),
    base_layout     TEXT NOT NULL,
    corpus_hash     TEXT NOT NULL,
    seed            INTEGER NOT NULL,
    strategy        TEXT NOT NULL,
    workers         INTEGER NOT NULL,
    iterations      INTEGER NOT NULL,
    accepted        INTEGER NOT NULL,
    initial_effort  REAL NOT NULL,
    final_effort    REAL NOT NULL,
    stop_reason     TEXT NOT NULL,
    started_ns      INTEGER NOT NULL,
    finished_ns     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ns);
`

const migrationV1Down = `
DROP INDEX IF EXISTS idx_runs_started;
DROP TABLE IF EXISTS runs;
DROP INDEX IF EXISTS idx_layouts_name;
DROP TABLE IF EXISTS layouts;
`

const migrationV2Up = `
CREATE TABLE IF NOT EXISTS run_swaps (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    ordinal     INTEGER NOT NULL,
    round       INTEGER NOT NULL,
    a_row       INTEGER NOT NULL,
    a_col       INTEGER NOT NULL,
    b_row       INTEGER NOT NULL,
    b_col       INTEGER NOT NULL,
    char_a      TEXT NOT NULL,
    char_b      TEXT NOT NULL,
    effort      REAL NOT NULL,
    PRIMARY KEY (run_id, ordinal)
);
`

const migrationV2Down = `
DROP TABLE IF EXISTS run_swaps;
`

// MigrateDB applies all pending migrations to the database.
func MigrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  INTEGER NOT NULL,
			description TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			m.Version, time.Now().UnixNano(), m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// RollbackMigration rolls back the last applied migration.
func RollbackMigration(db *sql.DB) error {
	current, err := currentVersion(db)
	if err != nil {
		return err
	}
	if current == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	var migration *Migration
	for i := range migrations {
		if migrations[i].Version == current {
			migration = &migrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %d not found", current)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(migration.Down); err != nil {
		tx.Rollback()
		return fmt.Errorf("rollback migration %d: %w", current, err)
	}
	if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", current); err != nil {
		tx.Rollback()
		return fmt.Errorf("remove migration record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rollback: %w", err)
	}
	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return v, nil
}

// MigrationStatus describes which migrations have been applied.
type MigrationStatus struct {
	CurrentVersion int
	LatestVersion  int
	Pending        []Migration
}

// GetMigrationStatus returns the current migration status.
func GetMigrationStatus(db *sql.DB) (*MigrationStatus, error) {
	status := &MigrationStatus{LatestVersion: migrations[len(migrations)-1].Version}

	current, err := currentVersion(db)
	if err != nil {
		// Table might not exist yet.
		status.Pending = migrations
		return status, nil
	}
	status.CurrentVersion = current
	for _, m := range migrations {
		if m.Version > current {
			status.Pending = append(status.Pending, m)
		}
	}
	return status, nil
}

// ValidateSchema checks that all expected tables exist.
func ValidateSchema(db *sql.DB) error {
	for _, table := range []string{"layouts", "runs", "run_swaps", "schema_migrations"} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("missing required table: %s", table)
		}
	}
	return nil
}
