package aura

import (
	"context"
	"errors"
	"sync"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	mu     sync.Mutex
	states map[string]GuildState
	memory map[string][]Turn

	memoryPuts int
	failReads  bool
	failWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states: make(map[string]GuildState),
		memory: make(map[string][]Turn),
	}
}

func (f *fakeStore) GuildState(scope string) (GuildState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return GuildState{}, errors.New("fake read failure")
	}
	st, ok := f.states[scope]
	if !ok {
		return DefaultGuildState(), nil
	}
	return st, nil
}

func (f *fakeStore) PutGuildState(scope string, st GuildState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("fake write failure")
	}
	f.states[scope] = st
	return nil
}

func (f *fakeStore) Memory(scope string) ([]Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errors.New("fake read failure")
	}
	turns := f.memory[scope]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (f *fakeStore) PutMemory(scope string, turns []Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("fake write failure")
	}
	stored := make([]Turn, len(turns))
	copy(stored, turns)
	f.memory[scope] = stored
	f.memoryPuts++
	return nil
}

func (f *fakeStore) MemoryScopes() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scopes := make([]string, 0, len(f.memory))
	for scope := range f.memory {
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

func (f *fakeStore) Close() error { return nil }

// seedMemory installs turns for a scope bypassing the manager.
func (f *fakeStore) seedMemory(scope string, turns []Turn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory[scope] = turns
}

func (f *fakeStore) storedMemory(scope string) []Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memory[scope]
}

// fakeLLM is a scripted CompletionClient.
type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error

	calls      int
	lastSystem string
	lastConv   []Turn

	// block, when non-nil, holds Complete until closed.
	block chan struct{}
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt string, conversation []Turn) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastSystem = systemPrompt
	f.lastConv = conversation
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ Store = (*fakeStore)(nil)
var _ CompletionClient = (*fakeLLM)(nil)

func mustRegistry(t interface{ Fatalf(string, ...any) }) *Registry {
	r, err := BuiltinRegistry()
	if err != nil {
		t.Fatalf("BuiltinRegistry failed: %v", err)
	}
	return r
}
