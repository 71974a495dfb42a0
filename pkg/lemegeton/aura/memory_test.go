package aura

import (
	"fmt"
	"testing"
)

func TestRecordTurnEvictsOldest(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mem := NewMemoryManager(store, nil)

	for i := 0; i < MaxTurns+2; i++ {
		if err := mem.RecordTurn("g:c", RoleUser, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("RecordTurn %d failed: %v", i, err)
		}
	}

	turns := store.storedMemory("g:c")
	if len(turns) != MaxTurns {
		t.Fatalf("stored %d turns, want cap %d", len(turns), MaxTurns)
	}
	if turns[0].Content != "turn 2" {
		t.Errorf("oldest surviving turn = %q, want %q", turns[0].Content, "turn 2")
	}
	if turns[len(turns)-1].Content != fmt.Sprintf("turn %d", MaxTurns+1) {
		t.Errorf("newest turn = %q, want %q", turns[len(turns)-1].Content, fmt.Sprintf("turn %d", MaxTurns+1))
	}
}

func TestRecordExchangeSingleFlush(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mem := NewMemoryManager(store, nil)

	if err := mem.RecordExchange("g:c", "hello", "hi there"); err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	if store.memoryPuts != 1 {
		t.Errorf("RecordExchange flushed %d times, want 1", store.memoryPuts)
	}

	turns := store.storedMemory("g:c")
	if len(turns) != 2 {
		t.Fatalf("stored %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hello" {
		t.Errorf("first turn = %+v, want user hello", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "hi there" {
		t.Errorf("second turn = %+v, want assistant reply", turns[1])
	}
}

func TestBuildConversationAppendsWithoutMutating(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.seedMemory("g:c", []Turn{
		{Role: RoleUser, Content: "before"},
		{Role: RoleAssistant, Content: "reply"},
	})
	mem := NewMemoryManager(store, nil)

	conv, err := mem.BuildConversation("g:c", "current question")
	if err != nil {
		t.Fatalf("BuildConversation failed: %v", err)
	}

	if len(conv) != 3 {
		t.Fatalf("conversation has %d turns, want 3", len(conv))
	}
	last := conv[len(conv)-1]
	if last.Role != RoleUser || last.Content != "current question" {
		t.Errorf("final turn = %+v, want synthetic user turn", last)
	}

	// The synthetic turn must not be persisted.
	if stored := store.storedMemory("g:c"); len(stored) != 2 {
		t.Errorf("stored memory grew to %d turns, want unchanged 2", len(stored))
	}
}

func TestLastRole(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mem := NewMemoryManager(store, nil)

	role, err := mem.LastRole("g:c")
	if err != nil {
		t.Fatalf("LastRole on empty scope failed: %v", err)
	}
	if role != "" {
		t.Errorf("LastRole on empty scope = %q, want empty", role)
	}

	if err := mem.RecordExchange("g:c", "q", "a"); err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}
	role, err = mem.LastRole("g:c")
	if err != nil {
		t.Fatalf("LastRole failed: %v", err)
	}
	if role != RoleAssistant {
		t.Errorf("LastRole = %q, want %q", role, RoleAssistant)
	}
}

func TestLoadTruncatesOversizedDocument(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	oversized := make([]Turn, MaxTurns+5)
	for i := range oversized {
		oversized[i] = Turn{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)}
	}
	store.seedMemory("g:c", oversized)
	mem := NewMemoryManager(store, nil)

	conv, err := mem.BuildConversation("g:c", "now")
	if err != nil {
		t.Fatalf("BuildConversation failed: %v", err)
	}

	// Cap re-check keeps the most recent MaxTurns, plus the synthetic turn.
	if len(conv) != MaxTurns+1 {
		t.Fatalf("conversation has %d turns, want %d", len(conv), MaxTurns+1)
	}
	if conv[0].Content != "turn 5" {
		t.Errorf("oldest turn after truncation = %q, want %q", conv[0].Content, "turn 5")
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	oversized := make([]Turn, MaxTurns+3)
	for i := range oversized {
		oversized[i] = Turn{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)}
	}
	store.seedMemory("big", oversized)
	store.seedMemory("small", []Turn{{Role: RoleUser, Content: "only"}})

	mem := NewMemoryManager(store, nil)
	if err := mem.Prune(); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	big := store.storedMemory("big")
	if len(big) != MaxTurns {
		t.Errorf("pruned scope has %d turns, want %d", len(big), MaxTurns)
	}
	if len(big) > 0 && big[0].Content != "turn 3" {
		t.Errorf("pruned scope oldest turn = %q, want %q", big[0].Content, "turn 3")
	}

	small := store.storedMemory("small")
	if len(small) != 1 || small[0].Content != "only" {
		t.Errorf("undersized scope was modified: %+v", small)
	}
}
