// Package aura – guard.go implements the per-message reentrancy guard.
// Gateway reconnects can deliver the same message event twice; the guard
// makes sure only one processing attempt runs per message ID.
package aura

import "sync"

// Guard is a process-local in-flight message set.
// A rejected TryAdmit is not an error: the caller drops the event.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAdmit marks messageID as in flight. Returns false when the ID is
// already being processed, in which case the caller must skip the event.
func (g *Guard) TryAdmit(messageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[messageID]; busy {
		return false
	}
	g.inflight[messageID] = struct{}{}
	return true
}

// Release removes messageID from the in-flight set. Safe to call for IDs
// that were never admitted. Callers defer it immediately after a
// successful TryAdmit so every exit path releases.
func (g *Guard) Release(messageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, messageID)
}

// InFlight returns the number of messages currently being processed.
func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
