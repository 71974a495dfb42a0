package store

import (
	"path/filepath"
	"testing"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestGuildStateRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	// Unknown scope reads back as defaults.
	got, err := st.GuildState("guild-1")
	if err != nil {
		t.Fatalf("GuildState failed: %v", err)
	}
	if got != aura.DefaultGuildState() {
		t.Errorf("unknown scope = %+v, want defaults", got)
	}

	want := aura.GuildState{Enabled: false, LockedPersona: "rogue", WebhookEnabled: true}
	if err := st.PutGuildState("guild-1", want); err != nil {
		t.Fatalf("PutGuildState failed: %v", err)
	}

	got, err = st.GuildState("guild-1")
	if err != nil {
		t.Fatalf("GuildState failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestGuildStateReplaceOnWrite(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	first := aura.GuildState{Enabled: true, LockedPersona: "manhua"}
	second := aura.GuildState{Enabled: false}

	if err := st.PutGuildState("g", first); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if err := st.PutGuildState("g", second); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	got, err := st.GuildState("g")
	if err != nil {
		t.Fatalf("GuildState failed: %v", err)
	}
	if got != second {
		t.Errorf("state = %+v, want fully replaced %+v", got, second)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	// Unknown scope reads back empty.
	turns, err := st.Memory("g:c")
	if err != nil {
		t.Fatalf("Memory failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("unknown scope returned %d turns, want 0", len(turns))
	}

	want := []aura.Turn{
		{Role: aura.RoleUser, Content: "first"},
		{Role: aura.RoleAssistant, Content: "second"},
		{Role: aura.RoleUser, Content: "third"},
	}
	if err := st.PutMemory("g:c", want); err != nil {
		t.Fatalf("PutMemory failed: %v", err)
	}

	turns, err = st.Memory("g:c")
	if err != nil {
		t.Fatalf("Memory failed: %v", err)
	}
	if len(turns) != len(want) {
		t.Fatalf("round trip returned %d turns, want %d", len(turns), len(want))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turn[%d] = %+v, want %+v (order must survive)", i, turns[i], want[i])
		}
	}
}

func TestCorruptDocumentsReadAsDefaults(t *testing.T) {
	t.Parallel()

	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	st := New(db, nil)
	t.Cleanup(func() { st.Close() })

	for _, table := range []string{"guild_config", "channel_memory"} {
		if _, err := db.Exec(
			"INSERT OR REPLACE INTO "+table+" (scope, document, updated_at) VALUES (?, ?, ?)",
			"broken", "{not json", "2026-01-01T00:00:00Z",
		); err != nil {
			t.Fatalf("seeding corrupt %s: %v", table, err)
		}
	}

	gs, err := st.GuildState("broken")
	if err != nil {
		t.Fatalf("GuildState on corrupt doc failed: %v", err)
	}
	if gs != aura.DefaultGuildState() {
		t.Errorf("corrupt guild config = %+v, want defaults", gs)
	}

	turns, err := st.Memory("broken")
	if err != nil {
		t.Fatalf("Memory on corrupt doc failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("corrupt memory returned %d turns, want 0", len(turns))
	}
}

func TestMemoryScopes(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	scopes, err := st.MemoryScopes()
	if err != nil {
		t.Fatalf("MemoryScopes failed: %v", err)
	}
	if len(scopes) != 0 {
		t.Errorf("fresh store lists %d scopes, want 0", len(scopes))
	}

	for _, scope := range []string{"g1:c1", "g1:c2", "g2:c1"} {
		if err := st.PutMemory(scope, []aura.Turn{{Role: aura.RoleUser, Content: "x"}}); err != nil {
			t.Fatalf("PutMemory %s failed: %v", scope, err)
		}
	}

	scopes, err = st.MemoryScopes()
	if err != nil {
		t.Fatalf("MemoryScopes failed: %v", err)
	}
	if len(scopes) != 3 {
		t.Fatalf("listed %d scopes, want 3", len(scopes))
	}
	if scopes[0] != "g1:c1" || scopes[2] != "g2:c1" {
		t.Errorf("scopes = %v, want sorted order", scopes)
	}
}

func TestStoreImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ aura.Store = openTestStore(t)
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	want := aura.GuildState{Enabled: true, LockedPersona: "oracle", WebhookEnabled: false}
	if err := st.PutGuildState("g", want); err != nil {
		t.Fatalf("PutGuildState failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	st, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()

	got, err := st.GuildState("g")
	if err != nil {
		t.Fatalf("GuildState after reopen failed: %v", err)
	}
	if got != want {
		t.Errorf("state after reopen = %+v, want %+v", got, want)
	}
}
