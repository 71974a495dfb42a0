// Package store – db.go opens the central lemegeton.db SQLite database.
// One file holds both logical tables: per-guild configuration and
// per-channel conversation memory, each stored as one JSON document per
// scope so every write is an atomic whole-document replace.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// schema is the DDL executed on every startup (idempotent via IF NOT EXISTS).
const schema = `
-- Per-guild engine configuration, one JSON document per scope.
CREATE TABLE IF NOT EXISTS guild_config (
    scope      TEXT PRIMARY KEY,
    document   TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Per-channel conversation memory, one JSON document per scope.
CREATE TABLE IF NOT EXISTS channel_memory (
    scope      TEXT PRIMARY KEY,
    document   TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// OpenDatabase opens (or creates) lemegeton.db at the given path.
// Enables WAL mode for concurrent read performance and creates the schema.
func OpenDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = "./data/lemegeton.db"
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
