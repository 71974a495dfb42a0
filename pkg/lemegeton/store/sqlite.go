// Package store implements the persistent state store behind the persona
// engine: a SQLite-backed key-value layer with one JSON document per scope.
// Writes use INSERT OR REPLACE, so readers never observe a half-updated
// document. Corrupt documents read back as defaults instead of failing.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// SQLiteStore implements aura.Store on top of lemegeton.db.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a store over an open database (see OpenDatabase).
func New(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger.With("component", "store")}
}

// Open is a convenience that opens the database at path and wraps it.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return New(db, logger), nil
}

// memoryDocument is the persisted shape of a channel's conversation memory.
type memoryDocument struct {
	Turns []aura.Turn `json:"turns"`
}

// GuildState returns the configuration document for scope, or the default
// state when the scope is unknown or its document is corrupt.
func (s *SQLiteStore) GuildState(scope string) (aura.GuildState, error) {
	doc, err := s.get("guild_config", scope)
	if errors.Is(err, sql.ErrNoRows) {
		return aura.DefaultGuildState(), nil
	}
	if err != nil {
		return aura.GuildState{}, fmt.Errorf("read guild config %q: %w", scope, err)
	}

	var st aura.GuildState
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		s.logger.Warn("corrupt guild config document, resetting to defaults",
			"scope", scope, "error", err)
		return aura.DefaultGuildState(), nil
	}
	return st, nil
}

// PutGuildState atomically replaces the configuration document for scope.
func (s *SQLiteStore) PutGuildState(scope string, st aura.GuildState) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode guild config: %w", err)
	}
	return s.put("guild_config", scope, string(doc))
}

// Memory returns the stored turns for scope. Unknown scopes read back as
// nil; corrupt documents reset to empty memory.
func (s *SQLiteStore) Memory(scope string) ([]aura.Turn, error) {
	doc, err := s.get("channel_memory", scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read channel memory %q: %w", scope, err)
	}

	var m memoryDocument
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		s.logger.Warn("corrupt memory document, resetting to empty",
			"scope", scope, "error", err)
		return nil, nil
	}
	return m.Turns, nil
}

// PutMemory atomically replaces the memory document for scope.
func (s *SQLiteStore) PutMemory(scope string, turns []aura.Turn) error {
	doc, err := json.Marshal(memoryDocument{Turns: turns})
	if err != nil {
		return fmt.Errorf("encode channel memory: %w", err)
	}
	return s.put("channel_memory", scope, string(doc))
}

// MemoryScopes lists every scope with a stored memory document.
func (s *SQLiteStore) MemoryScopes() ([]string, error) {
	rows, err := s.db.Query("SELECT scope FROM channel_memory ORDER BY scope")
	if err != nil {
		return nil, fmt.Errorf("list memory scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("scan memory scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(table, scope string) (string, error) {
	var doc string
	err := s.db.QueryRow(
		// Table names are compile-time constants here, never user input.
		fmt.Sprintf("SELECT document FROM %s WHERE scope = ?", table), scope,
	).Scan(&doc)
	return doc, err
}

func (s *SQLiteStore) put(table, scope, doc string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("INSERT OR REPLACE INTO %s (scope, document, updated_at) VALUES (?, ?, ?)", table),
		scope, doc, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write %s %q: %w", table, scope, err)
	}
	return nil
}

// Compile-time interface verification.
var _ aura.Store = (*SQLiteStore)(nil)
