// Package discord implements the Discord channel for Lemegeton using
// discordgo.
//
// Features:
//   - Gateway message events forwarded to the persona engine
//   - Embed replies with persona presentation
//   - Typing indicators
//   - Guild allowlist
//   - /aura slash commands for the administrative control surface
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels"
)

// Discord implements channels.Channel over the Discord gateway.
type Discord struct {
	cfg     aura.DiscordConfig
	engine  *aura.Engine
	audit   aura.Auditor
	logger  *slog.Logger
	session *discordgo.Session

	// messages is the stream of incoming messages forwarded to the engine.
	messages chan *channels.IncomingMessage

	connected atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Discord channel. engine resolves admin commands; audit may
// be nil.
func New(cfg aura.DiscordConfig, engine *aura.Engine, audit aura.Auditor, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		cfg:      cfg,
		engine:   engine,
		audit:    audit,
		logger:   logger.With("component", "discord"),
		messages: make(chan *channels.IncomingMessage, 256),
	}
}

// ---------- Channel Interface ----------

// Name returns "discord".
func (d *Discord) Name() string { return "discord" }

// Connect opens the Discord gateway WebSocket connection and registers
// the /aura command set.
func (d *Discord) Connect(ctx context.Context) error {
	if d.cfg.Token == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}

	d.session = session
	d.connected.Store(true)

	user := session.State.User
	d.engine.SetBotIdentity(user.ID)

	if err := d.registerCommands(); err != nil {
		d.logger.Error("discord: registering commands failed", "error", err)
	}

	d.logger.Info("discord: connected", "bot", user.Username, "id", user.ID)
	return nil
}

// Disconnect closes the Discord gateway connection.
func (d *Discord) Disconnect() error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.session != nil {
		d.session.Close()
	}
	d.connected.Store(false)
	d.logger.Info("discord: disconnected")
	return nil
}

// Receive returns the incoming messages channel.
func (d *Discord) Receive() <-chan *channels.IncomingMessage {
	return d.messages
}

// SendReply sends an embed reply to a message.
func (d *Discord) SendReply(ctx context.Context, channelID, replyToID string, reply *channels.Reply) error {
	if d.session == nil {
		return channels.ErrChannelDisconnected
	}

	embed := &discordgo.MessageEmbed{
		Title:       reply.Title,
		Description: reply.Description,
		Color:       reply.Color,
	}
	if reply.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: reply.Footer}
	}

	msgSend := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if replyToID != "" {
		msgSend.Reference = &discordgo.MessageReference{MessageID: replyToID, ChannelID: channelID}
	}

	_, err := d.session.ChannelMessageSendComplex(channelID, msgSend)
	return err
}

// SendTyping sends a typing indicator to the channel.
func (d *Discord) SendTyping(ctx context.Context, channelID string) error {
	if d.session == nil {
		return nil
	}
	return d.session.ChannelTyping(channelID)
}

// IsConnected returns true if the bot is connected.
func (d *Discord) IsConnected() bool { return d.connected.Load() }

// ---------- Event Handlers ----------

// onMessageCreate forwards gateway messages to the engine stream.
func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// The engine re-checks bot authorship; filtering here just avoids
	// queue churn.
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	if !d.guildAllowed(m.GuildID) {
		return
	}

	mentionsBot := false
	for _, mention := range m.Mentions {
		if mention.ID == s.State.User.ID {
			mentionsBot = true
			break
		}
	}

	replyToAuthor := ""
	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		replyToAuthor = m.ReferencedMessage.Author.ID
	}

	incoming := &channels.IncomingMessage{
		ID:              m.ID,
		GuildID:         m.GuildID,
		ChannelID:       m.ChannelID,
		AuthorID:        m.Author.ID,
		AuthorName:      m.Author.Username,
		AuthorIsBot:     m.Author.Bot,
		Content:         m.Content,
		MentionsBot:     mentionsBot,
		ReplyToAuthorID: replyToAuthor,
		Timestamp:       m.Timestamp,
	}

	select {
	case d.messages <- incoming:
	default:
		d.logger.Warn("discord: message buffer full, dropping message", "msg_id", incoming.ID)
	}
}

// guildAllowed applies the guild allowlist. Empty list allows all guilds.
func (d *Discord) guildAllowed(guildID string) bool {
	if len(d.cfg.AllowedGuilds) == 0 {
		return true
	}
	for _, id := range d.cfg.AllowedGuilds {
		if id == guildID {
			return true
		}
	}
	return false
}

// ---------- Slash Commands ----------

// registerCommands registers the /aura command group globally.
func (d *Discord) registerCommands() error {
	personaChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, d.engine.Registry().Len())
	for _, p := range d.engine.Registry().All() {
		personaChoices = append(personaChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s %s", p.Emoji, p.Key),
			Value: p.Key,
		})
	}

	onOff := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "on", Value: "on"},
		{Name: "off", Value: "off"},
	}

	cmd := &discordgo.ApplicationCommand{
		Name:        "aura",
		Description: "Persona engine controls",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show listener and persona status",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "toggle",
				Description: "Enable or disable the listener",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "state",
						Description: "on or off",
						Required:    true,
						Choices:     onOff,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "lock",
				Description: "Lock replies to one persona",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "persona",
						Description: "Persona to lock",
						Required:    true,
						Choices:     personaChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "unlock",
				Description: "Return to automatic persona selection",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "webhook",
				Description: "Enable or disable audit webhook posts",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "state",
						Description: "on or off",
						Required:    true,
						Choices:     onOff,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reset",
				Description: "Reset guild settings to defaults",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "personas",
				Description: "List available personas",
			},
		},
	}

	_, err := d.session.ApplicationCommandCreate(d.session.State.User.ID, "", cmd)
	return err
}

// onInteractionCreate dispatches /aura subcommands to the engine's state
// manager. Discord's own permission system gates who can invoke them.
func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "aura" || len(data.Options) == 0 {
		return
	}

	sub := data.Options[0]
	states := d.engine.States()
	scope := i.GuildID

	var (
		content string
		embed   *discordgo.MessageEmbed
		err     error
	)

	switch sub.Name {
	case "status":
		st, stateErr := states.State(scope)
		if stateErr != nil {
			err = stateErr
			break
		}
		locked := st.LockedPersona
		if locked == "" {
			locked = "Auto Mode"
		}
		embed = &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Status: %s\nPersona: %s\nWebhook: %s",
				onOffLabel(st.Enabled), locked, onOffLabel(st.WebhookEnabled)),
			Color: 0x00FFFF,
		}

	case "toggle":
		enabled := optionValue(sub, "state") == "on"
		_, err = states.SetEnabled(scope, enabled)
		if err == nil {
			content = fmt.Sprintf("Listener %s.", enabledLabel(enabled))
			d.notifyAdmin(fmt.Sprintf("aura admin — listener %s", enabledLabel(enabled)), i)
		}

	case "lock":
		key := optionValue(sub, "persona")
		_, err = states.LockPersona(scope, key)
		if err == nil {
			p, _ := d.engine.Registry().Get(key)
			embed = &discordgo.MessageEmbed{
				Description: fmt.Sprintf("🔒 Locked to %s — listener active.", p.Emoji),
				Color:       p.Color,
				Footer:      &discordgo.MessageEmbedFooter{Text: p.Footer},
			}
			d.notifyAdmin(fmt.Sprintf("aura admin — persona locked to %s", key), i)
		}

	case "unlock":
		_, err = states.Unlock(scope)
		if err == nil {
			content = "Persona unlocked. Auto mode enabled."
			d.notifyAdmin("aura admin — persona unlocked (auto)", i)
		}

	case "webhook":
		enabled := optionValue(sub, "state") == "on"
		_, err = states.SetWebhookEnabled(scope, enabled)
		if err == nil {
			content = fmt.Sprintf("Webhook logging %s.", enabledLabel(enabled))
			d.notifyAdmin(fmt.Sprintf("aura admin — webhook %s", enabledLabel(enabled)), i)
		}

	case "reset":
		_, err = states.Reset(scope)
		if err == nil {
			content = "Guild settings reset to defaults."
			d.notifyAdmin("aura admin — settings reset", i)
		}

	case "personas":
		embed = d.personaListEmbed()

	default:
		return
	}

	if err != nil {
		d.logger.Warn("discord: admin command failed", "sub", sub.Name, "error", err)
		content = fmt.Sprintf("Command failed: %v", err)
		embed = nil
	}

	respData := &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
	if embed != nil {
		respData.Embeds = []*discordgo.MessageEmbed{embed}
	}

	if respondErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: respData,
	}); respondErr != nil {
		d.logger.Warn("discord: interaction respond failed", "error", respondErr)
	}
}

// personaListEmbed formats the persona catalog.
func (d *Discord) personaListEmbed() *discordgo.MessageEmbed {
	var b strings.Builder
	for _, p := range d.engine.Registry().All() {
		fmt.Fprintf(&b, "%s **%s** — %s\n", p.Emoji, p.Key, p.Style)
	}
	return &discordgo.MessageEmbed{
		Title:       "Persona Nexus — Personas",
		Description: b.String(),
		Color:       0xFFB6C1,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Use /aura lock to lock one."},
	}
}

// notifyAdmin posts an audit event for an admin action.
func (d *Discord) notifyAdmin(title string, i *discordgo.InteractionCreate) {
	if d.audit == nil {
		return
	}
	actor := ""
	if i.Member != nil && i.Member.User != nil {
		actor = fmt.Sprintf("%s (%s)", i.Member.User.Username, i.Member.User.ID)
	}
	event := aura.AuditEvent{Title: title, Actor: actor}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	go func() {
		defer cancel()
		d.audit.Notify(ctx, event)
	}()
}

// ---------- Helpers ----------

func optionValue(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func onOffLabel(on bool) string {
	if on {
		return "✅ Enabled"
	}
	return "❌ Disabled"
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

// Compile-time interface verification.
var _ channels.Channel = (*Discord)(nil)
