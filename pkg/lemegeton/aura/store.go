// Package aura – store.go defines the narrow persistence contract the
// engine depends on. Implementations must make writes atomic per scope:
// a reader never observes a partially updated document.
package aura

// Store persists the two logical documents the engine owns: per-guild
// configuration and per-channel conversation memory. Scopes are opaque
// strings; missing scopes read back as defaults (empty memory, default
// guild state), created lazily on first write.
type Store interface {
	// GuildState returns the configuration for scope, or the default
	// state when the scope has never been written.
	GuildState(scope string) (GuildState, error)

	// PutGuildState atomically replaces the configuration for scope.
	PutGuildState(scope string, st GuildState) error

	// Memory returns the stored turns for scope in insertion order, or
	// nil when the scope has never been written.
	Memory(scope string) ([]Turn, error)

	// PutMemory atomically replaces the stored turns for scope.
	PutMemory(scope string, turns []Turn) error

	// MemoryScopes lists every scope with stored memory.
	MemoryScopes() ([]string, error)

	Close() error
}
