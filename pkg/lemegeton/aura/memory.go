// Package aura – memory.go implements the bounded per-channel conversation
// memory. Memory is an ordered turn sequence capped at MaxTurns; the oldest
// turn is evicted first. Every mutation is flushed to the store before the
// call returns, so a reply is never acknowledged ahead of its history.
package aura

import (
	"fmt"
	"log/slog"
)

// MaxTurns is the per-scope memory cap. On insertion beyond the cap the
// oldest turn is evicted.
const MaxTurns = 10

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged unit of conversation history. Insertion order is
// chronological and replayed verbatim to the model.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MemoryManager mediates all access to conversation memory.
// Callers are expected to serialize operations per scope (the engine holds
// a per-scope lock across build + record); the manager itself does plain
// read-modify-write cycles against the store.
type MemoryManager struct {
	store  Store
	logger *slog.Logger
}

// NewMemoryManager creates a memory manager backed by store.
func NewMemoryManager(store Store, logger *slog.Logger) *MemoryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryManager{
		store:  store,
		logger: logger.With("component", "memory"),
	}
}

// BuildConversation returns the stored turns for scope followed by a
// synthetic final user turn carrying the current message. Memory is not
// mutated.
func (m *MemoryManager) BuildConversation(scope, currentText string) ([]Turn, error) {
	turns, err := m.load(scope)
	if err != nil {
		return nil, err
	}
	return append(turns, Turn{Role: RoleUser, Content: currentText}), nil
}

// LastRole returns the role of the most recent stored turn, or "" when the
// scope has no memory. Used by the scoring reinforcement bonus.
func (m *MemoryManager) LastRole(scope string) (string, error) {
	turns, err := m.load(scope)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "", nil
	}
	return turns[len(turns)-1].Role, nil
}

// RecordTurn appends one turn for scope, evicts beyond the cap, and
// flushes to the store before returning.
func (m *MemoryManager) RecordTurn(scope, role, content string) error {
	return m.record(scope, Turn{Role: role, Content: content})
}

// RecordExchange appends the user turn and the assistant reply in one
// flush. Both turns land within the same processing attempt, so the next
// message for this scope always sees a consistent pair.
func (m *MemoryManager) RecordExchange(scope, userText, assistantText string) error {
	return m.record(scope,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
}

// Prune re-checks the cap invariant for every stored scope, truncating
// oversized documents to the most recent MaxTurns. Run by the janitor and
// harmless when nothing is oversized.
func (m *MemoryManager) Prune() error {
	scopes, err := m.store.MemoryScopes()
	if err != nil {
		return fmt.Errorf("list memory scopes: %w", err)
	}

	for _, scope := range scopes {
		turns, err := m.store.Memory(scope)
		if err != nil {
			m.logger.Warn("prune: skipping unreadable scope", "scope", scope, "error", err)
			continue
		}
		if len(turns) <= MaxTurns {
			continue
		}
		trimmed := turns[len(turns)-MaxTurns:]
		if err := m.store.PutMemory(scope, trimmed); err != nil {
			m.logger.Warn("prune: flush failed", "scope", scope, "error", err)
			continue
		}
		m.logger.Info("memory pruned", "scope", scope, "removed", len(turns)-MaxTurns)
	}
	return nil
}

// load reads memory for scope and re-checks the cap, truncating to the
// most recent MaxTurns if an oversized document was persisted.
func (m *MemoryManager) load(scope string) ([]Turn, error) {
	turns, err := m.store.Memory(scope)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	if len(turns) > MaxTurns {
		m.logger.Warn("oversized memory loaded, truncating",
			"scope", scope, "len", len(turns), "cap", MaxTurns)
		turns = turns[len(turns)-MaxTurns:]
	}
	return turns, nil
}

// record appends turns, evicts from the front past the cap, and flushes.
func (m *MemoryManager) record(scope string, add ...Turn) error {
	turns, err := m.load(scope)
	if err != nil {
		return err
	}

	turns = append(turns, add...)
	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}

	if err := m.store.PutMemory(scope, turns); err != nil {
		return fmt.Errorf("flush memory: %w", err)
	}
	return nil
}
