// Package aura – state.go implements the per-guild configuration state
// and the administrative control surface. Command parsing lives in the
// channel adapters; this file only exposes the state mutations.
package aura

import (
	"fmt"
	"log/slog"
	"sync"
)

// GuildState is the per-guild engine configuration.
// Persisted as a single JSON document per scope.
type GuildState struct {
	// Enabled gates the listener. When false the engine never responds
	// in this guild, regardless of triggers.
	Enabled bool `json:"enabled"`

	// LockedPersona, when set, bypasses scoring: this persona always
	// answers. Empty means auto mode.
	LockedPersona string `json:"locked_persona,omitempty"`

	// WebhookEnabled gates the audit webhook for this guild.
	WebhookEnabled bool `json:"webhook_enabled"`
}

// DefaultGuildState returns the state a guild starts with.
func DefaultGuildState() GuildState {
	return GuildState{Enabled: true, WebhookEnabled: true}
}

// StateManager owns guild configuration: all reads and mutations go
// through it, and every mutation is flushed to the store before returning.
type StateManager struct {
	store    Store
	registry *Registry
	logger   *slog.Logger

	// mu serializes read-modify-write cycles so concurrent admin
	// commands cannot lose updates.
	mu sync.Mutex
}

// NewStateManager creates a state manager backed by store.
func NewStateManager(store Store, registry *Registry, logger *slog.Logger) *StateManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateManager{
		store:    store,
		registry: registry,
		logger:   logger.With("component", "state"),
	}
}

// State returns the current configuration for scope.
func (m *StateManager) State(scope string) (GuildState, error) {
	return m.store.GuildState(scope)
}

// SetEnabled toggles the listener for scope.
func (m *StateManager) SetEnabled(scope string, enabled bool) (GuildState, error) {
	return m.mutate(scope, func(st *GuildState) {
		st.Enabled = enabled
	})
}

// LockPersona locks scope to the given persona and re-enables the
// listener, matching the admin command semantics: locking implies the
// operator wants replies.
func (m *StateManager) LockPersona(scope, personaKey string) (GuildState, error) {
	if _, ok := m.registry.Get(personaKey); !ok {
		return GuildState{}, fmt.Errorf("unknown persona %q", personaKey)
	}
	return m.mutate(scope, func(st *GuildState) {
		st.LockedPersona = personaKey
		st.Enabled = true
	})
}

// Unlock returns scope to auto mode.
func (m *StateManager) Unlock(scope string) (GuildState, error) {
	return m.mutate(scope, func(st *GuildState) {
		st.LockedPersona = ""
	})
}

// SetWebhookEnabled toggles audit webhook delivery for scope.
func (m *StateManager) SetWebhookEnabled(scope string, enabled bool) (GuildState, error) {
	return m.mutate(scope, func(st *GuildState) {
		st.WebhookEnabled = enabled
	})
}

// Reset restores scope to the default configuration.
func (m *StateManager) Reset(scope string) (GuildState, error) {
	return m.mutate(scope, func(st *GuildState) {
		*st = DefaultGuildState()
	})
}

// mutate loads, edits, and flushes the state for scope under the lock.
func (m *StateManager) mutate(scope string, edit func(*GuildState)) (GuildState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.GuildState(scope)
	if err != nil {
		return GuildState{}, fmt.Errorf("load guild state: %w", err)
	}

	edit(&st)

	if err := m.store.PutGuildState(scope, st); err != nil {
		return GuildState{}, fmt.Errorf("save guild state: %w", err)
	}

	m.logger.Info("guild state updated",
		"scope", scope,
		"enabled", st.Enabled,
		"locked_persona", st.LockedPersona,
	)
	return st, nil
}
