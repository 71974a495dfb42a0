// Package aura – engine.go wires the guard, scoring, memory, and completion
// pieces into the per-message processing flow.
package aura

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels"
)

// AuditEvent is a compact record of an engine action for the audit webhook.
type AuditEvent struct {
	Title   string
	Actor   string
	Details string
}

// Auditor receives audit events. Implementations must not block the reply
// path; the engine fires events on their own goroutine regardless.
type Auditor interface {
	Notify(ctx context.Context, event AuditEvent)
}

// Engine decides, for each incoming message, whether to respond, which
// persona answers, and with what context. It keeps per-channel memory
// bounded and consistent while messages arrive concurrently.
type Engine struct {
	registry *Registry
	selector *Selector
	memory   *MemoryManager
	guard    *Guard
	states   *StateManager
	llm      CompletionClient
	audit    Auditor
	logger   *slog.Logger

	// botID is the platform identity, set once the gateway connects.
	botMu sync.RWMutex
	botID string

	// scope locks serialize distinct messages within one channel scope so
	// build + completion + record + flush run as one critical section.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewEngine creates the engine. audit may be nil.
func NewEngine(registry *Registry, store Store, llm CompletionClient, audit Auditor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		registry: registry,
		selector: NewSelector(registry),
		memory:   NewMemoryManager(store, logger),
		guard:    NewGuard(),
		states:   NewStateManager(store, registry, logger),
		llm:      llm,
		audit:    audit,
		logger:   logger.With("component", "engine"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// States exposes the administrative control surface.
func (e *Engine) States() *StateManager { return e.states }

// Registry exposes the persona catalog.
func (e *Engine) Registry() *Registry { return e.registry }

// Memory exposes the memory manager (used by the janitor and the REPL).
func (e *Engine) Memory() *MemoryManager { return e.memory }

// SetBotIdentity records the bot's own user ID, used to resolve
// reply-to-bot triggers. Called by the channel adapter after connecting.
func (e *Engine) SetBotIdentity(id string) {
	e.botMu.Lock()
	e.botID = id
	e.botMu.Unlock()
}

// BotIdentity returns the recorded bot user ID.
func (e *Engine) BotIdentity() string {
	e.botMu.RLock()
	defer e.botMu.RUnlock()
	return e.botID
}

// MemoryScope derives the conversation memory scope for a message.
// Memory is scoped by guild and channel; guild configuration by guild.
func MemoryScope(guildID, channelID string) string {
	return fmt.Sprintf("%s:%s", guildID, channelID)
}

// Process runs the full flow for one message and returns the reply to
// send, or nil when the engine stays silent. Internal failures degrade to
// the fallback reply; Process never propagates an error to the platform.
func (e *Engine) Process(ctx context.Context, msg *channels.IncomingMessage) *channels.Reply {
	// Bot authors and DMs are outside the listener's territory.
	if msg.AuthorIsBot || msg.GuildID == "" {
		return nil
	}

	// Exactly-once admission per message ID; a duplicate delivery is
	// silently dropped.
	if !e.guard.TryAdmit(msg.ID) {
		e.logger.Debug("duplicate message delivery dropped", "msg_id", msg.ID)
		return nil
	}
	defer e.guard.Release(msg.ID)

	logger := e.logger.With(
		"msg_id", msg.ID,
		"guild", msg.GuildID,
		"chat", msg.ChannelID,
		"attempt", uuid.NewString(),
	)

	st, err := e.states.State(msg.GuildID)
	if err != nil {
		logger.Error("guild state unreadable, using defaults", "error", err)
		st = DefaultGuildState()
	}
	if !st.Enabled {
		return nil
	}

	scope := MemoryScope(msg.GuildID, msg.ChannelID)

	// One channel scope at a time: distinct concurrent messages in the
	// same channel cannot interleave their memory reads and writes.
	lock := e.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	replyToBot := msg.ReplyToAuthorID != "" && msg.ReplyToAuthorID == e.BotIdentity()
	if !e.selector.ShouldRespond(msg.Content, msg.MentionsBot, replyToBot) {
		return nil
	}

	start := time.Now()

	lastRole, err := e.memory.LastRole(scope)
	if err != nil {
		logger.Warn("memory unreadable for scoring, treating as empty", "error", err)
		lastRole = ""
	}

	personaKey := e.selector.Select(msg.Content, lastRole, st.LockedPersona)
	persona, ok := e.registry.Get(personaKey)
	if !ok {
		persona = e.registry.Default()
		personaKey = DefaultPersonaKey
	}

	conversation, err := e.memory.BuildConversation(scope, msg.Content)
	if err != nil {
		logger.Warn("memory unreadable for context, replying without history", "error", err)
		conversation = []Turn{{Role: RoleUser, Content: msg.Content}}
	}

	text, err := e.llm.Complete(ctx, persona.SystemPrompt, conversation)
	if err != nil || text == "" {
		kind := "failure"
		if IsTimeout(err) {
			kind = "timeout"
		}
		logger.Warn("completion failed, using fallback", "kind", kind, "error", err)
		text = FallbackReply(personaKey, msg.Content)
	}

	// Durability before acknowledgment: the exchange is flushed before
	// the reply goes out. A failed flush degrades to stale persistence,
	// never to a missing reply.
	if err := e.memory.RecordExchange(scope, msg.Content, text); err != nil {
		logger.Warn("memory flush failed, continuing with reply", "error", err)
	}

	logger.Info("auto-reply generated",
		"persona", personaKey,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if st.WebhookEnabled && e.audit != nil {
		event := AuditEvent{
			Title:   fmt.Sprintf("auto-reply persona=%s", personaKey),
			Actor:   fmt.Sprintf("%s (%s)", msg.AuthorName, msg.AuthorID),
			Details: fmt.Sprintf("User: %s\nReply excerpt: %s", truncate(msg.Content, 200), truncate(text, 800)),
		}
		go e.audit.Notify(context.WithoutCancel(ctx), event)
	}

	return &channels.Reply{
		Description: text,
		Color:       persona.Color,
		Footer:      persona.Footer,
	}
}

// scopeLock returns the mutex for a channel scope, creating it on first use.
func (e *Engine) scopeLock(scope string) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()

	lock, ok := e.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[scope] = lock
	}
	return lock
}
