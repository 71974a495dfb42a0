package aura

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels"
)

func newTestEngine(t *testing.T, store *fakeStore, llm *fakeLLM) *Engine {
	t.Helper()
	engine := NewEngine(mustRegistry(t), store, llm, nil, nil)
	engine.SetBotIdentity("bot-user")
	return engine
}

func testMessage(id, content string) *channels.IncomingMessage {
	return &channels.IncomingMessage{
		ID:          id,
		GuildID:     "guild-1",
		ChannelID:   "chan-1",
		AuthorID:    "user-1",
		AuthorName:  "tester",
		Content:     content,
		MentionsBot: true,
		Timestamp:   time.Now(),
	}
}

func TestProcessGeneratesAndRecordsExchange(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "the heavens have spoken"}
	engine := newTestEngine(t, store, llm)

	msg := testMessage("m1", "what is the fate of this realm?")
	reply := engine.Process(context.Background(), msg)
	if reply == nil {
		t.Fatal("Process returned nil, want a reply")
	}
	if reply.Description != "the heavens have spoken" {
		t.Errorf("reply text = %q, want model output", reply.Description)
	}

	// "fate" + "realm" select manhua; presentation passes through.
	manhua, _ := engine.Registry().Get("manhua")
	if reply.Color != manhua.Color {
		t.Errorf("reply color = %#x, want manhua %#x", reply.Color, manhua.Color)
	}
	if reply.Footer != manhua.Footer {
		t.Errorf("reply footer = %q, want %q", reply.Footer, manhua.Footer)
	}

	// System prompt matches the selected persona.
	if llm.lastSystem != manhua.SystemPrompt {
		t.Errorf("system prompt = %q, want manhua prompt", llm.lastSystem)
	}

	turns := store.storedMemory(MemoryScope("guild-1", "chan-1"))
	if len(turns) != 2 {
		t.Fatalf("stored %d turns, want user + assistant", len(turns))
	}
	if turns[1].Content != "the heavens have spoken" {
		t.Errorf("assistant turn = %q, want recorded reply", turns[1].Content)
	}
}

func TestProcessFallbackStillRecordsTurn(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{err: errors.New("backend down")}
	engine := newTestEngine(t, store, llm)

	msg := testMessage("m1", "what is the fate of this realm?")
	reply := engine.Process(context.Background(), msg)
	if reply == nil {
		t.Fatal("Process returned nil, want the fallback reply")
	}

	want := FallbackReply("manhua", msg.Content)
	if reply.Description != want {
		t.Errorf("fallback reply = %q, want %q", reply.Description, want)
	}

	// The fallback text the user saw is what memory records.
	turns := store.storedMemory(MemoryScope("guild-1", "chan-1"))
	if len(turns) != 2 {
		t.Fatalf("stored %d turns, want 2 after fallback", len(turns))
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != want {
		t.Errorf("assistant turn = %+v, want the fallback text", turns[1])
	}
}

func TestProcessEmptyCompletionUsesFallback(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: ""}
	engine := newTestEngine(t, store, llm)

	reply := engine.Process(context.Background(), testMessage("m1", "fate calls"))
	if reply == nil {
		t.Fatal("Process returned nil, want the fallback reply")
	}
	if !strings.Contains(reply.Description, "echo:") {
		t.Errorf("empty completion should fall back, got %q", reply.Description)
	}
}

func TestProcessDisabledGuildStaysSilent(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "should never be used"}
	engine := newTestEngine(t, store, llm)

	if _, err := engine.States().SetEnabled("guild-1", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	if reply := engine.Process(context.Background(), testMessage("m1", "fate!")); reply != nil {
		t.Fatalf("disabled guild produced a reply: %+v", reply)
	}
	if llm.callCount() != 0 {
		t.Errorf("LLM called %d times for a disabled guild, want 0", llm.callCount())
	}
}

func TestProcessIgnoresBotsAndDMs(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "nope"}
	engine := newTestEngine(t, store, llm)

	bot := testMessage("m1", "fate")
	bot.AuthorIsBot = true
	if reply := engine.Process(context.Background(), bot); reply != nil {
		t.Error("bot-authored message produced a reply")
	}

	dm := testMessage("m2", "fate")
	dm.GuildID = ""
	if reply := engine.Process(context.Background(), dm); reply != nil {
		t.Error("DM produced a reply")
	}

	if llm.callCount() != 0 {
		t.Errorf("LLM called %d times, want 0", llm.callCount())
	}
}

func TestProcessNoTriggerStaysSilent(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "nope"}
	engine := newTestEngine(t, store, llm)

	msg := testMessage("m1", "zzz qqq nothing")
	msg.MentionsBot = false
	if reply := engine.Process(context.Background(), msg); reply != nil {
		t.Fatalf("untriggered message produced a reply: %+v", reply)
	}
}

func TestProcessReplyToBotTriggers(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "still here"}
	engine := newTestEngine(t, store, llm)

	msg := testMessage("m1", "zzz qqq nothing")
	msg.MentionsBot = false
	msg.ReplyToAuthorID = "bot-user"
	if reply := engine.Process(context.Background(), msg); reply == nil {
		t.Fatal("reply to the bot should trigger a response")
	}
}

func TestProcessLockedPersonaWins(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "roasted"}
	engine := newTestEngine(t, store, llm)

	if _, err := engine.States().LockPersona("guild-1", "rogue"); err != nil {
		t.Fatalf("LockPersona failed: %v", err)
	}

	// Text that would otherwise score heavily for manhua.
	reply := engine.Process(context.Background(), testMessage("m1", "fate blood realm heaven"))
	if reply == nil {
		t.Fatal("Process returned nil")
	}
	rogue, _ := engine.Registry().Get("rogue")
	if reply.Color != rogue.Color {
		t.Errorf("reply color = %#x, want locked rogue %#x", reply.Color, rogue.Color)
	}
}

func TestProcessDuplicateDeliveryDropped(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	block := make(chan struct{})
	llm := &fakeLLM{reply: "done", block: block}
	engine := newTestEngine(t, store, llm)

	first := make(chan *channels.Reply, 1)
	go func() {
		first <- engine.Process(context.Background(), testMessage("dup", "fate"))
	}()

	// Wait until the first attempt is inside the completion call.
	deadline := time.After(2 * time.Second)
	for llm.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first attempt never reached the completion client")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Same message ID delivered again while the first is in flight.
	if reply := engine.Process(context.Background(), testMessage("dup", "fate")); reply != nil {
		t.Error("duplicate delivery produced a reply")
	}

	close(block)
	if reply := <-first; reply == nil {
		t.Fatal("original delivery lost its reply")
	}
	if llm.callCount() != 1 {
		t.Errorf("LLM called %d times, want 1", llm.callCount())
	}
}

func TestProcessConcurrentDistinctMessagesOneScope(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "ack"}
	engine := newTestEngine(t, store, llm)

	// Distinct messages in the same channel scope arriving concurrently:
	// the scope lock serializes build + completion + record + flush, so
	// exchanges must never interleave and the cap must hold throughout.
	const messages = 25
	var wg sync.WaitGroup
	for i := 0; i < messages; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := testMessage(fmt.Sprintf("m%d", i), fmt.Sprintf("question %d about fate", i))
			if reply := engine.Process(context.Background(), msg); reply == nil {
				t.Errorf("message %d lost its reply", i)
			}
		}(i)
	}
	wg.Wait()

	turns := store.storedMemory(MemoryScope("guild-1", "chan-1"))
	if len(turns) > MaxTurns {
		t.Fatalf("memory holds %d turns, cap is %d", len(turns), MaxTurns)
	}
	if len(turns) != MaxTurns {
		t.Fatalf("memory holds %d turns after %d exchanges, want full cap %d",
			len(turns), messages, MaxTurns)
	}

	// Each exchange lands as an adjacent user/assistant pair; since every
	// flush appends exactly one pair, alternation survives eviction too.
	for i, turn := range turns {
		if i%2 == 0 {
			if turn.Role != RoleUser || !strings.HasPrefix(turn.Content, "question ") {
				t.Errorf("turn[%d] = %+v, want a user question", i, turn)
			}
			continue
		}
		if turn.Role != RoleAssistant || turn.Content != "ack" {
			t.Errorf("turn[%d] = %+v, want the assistant reply to turn[%d]", i, turn, i-1)
		}
	}

	if llm.callCount() != messages {
		t.Errorf("LLM called %d times, want one call per distinct message", llm.callCount())
	}
}

func TestProcessBoundedConversationContext(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	llm := &fakeLLM{reply: "ok"}
	engine := newTestEngine(t, store, llm)

	scope := MemoryScope("guild-1", "chan-1")
	big := make([]Turn, MaxTurns+4)
	for i := range big {
		big[i] = Turn{Role: RoleUser, Content: "old"}
	}
	store.seedMemory(scope, big)

	if reply := engine.Process(context.Background(), testMessage("m1", "fate")); reply == nil {
		t.Fatal("Process returned nil")
	}

	// Cap re-check applies on load: capped history plus the current turn.
	if len(llm.lastConv) != MaxTurns+1 {
		t.Errorf("conversation sent %d turns, want %d", len(llm.lastConv), MaxTurns+1)
	}
}

func TestMemoryScope(t *testing.T) {
	t.Parallel()
	if got := MemoryScope("g", "c"); got != "g:c" {
		t.Errorf("MemoryScope = %q, want g:c", got)
	}
	if MemoryScope("g", "c1") == MemoryScope("g", "c2") {
		t.Error("different channels must map to different scopes")
	}
}
