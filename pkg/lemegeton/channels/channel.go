// Package channels defines the narrow contract between the persona engine
// and a chat platform. The engine consumes IncomingMessage values and
// produces Reply values; everything platform-specific stays in adapters.
package channels

import (
	"context"
	"errors"
	"time"
)

// ErrChannelDisconnected is returned when sending on a closed channel.
var ErrChannelDisconnected = errors.New("channel is not connected")

// IncomingMessage is one inbound message event.
type IncomingMessage struct {
	// ID is the platform message identifier, unique per message.
	ID string

	// GuildID and ChannelID locate the message. GuildID is empty for DMs.
	GuildID   string
	ChannelID string

	// Author identity.
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool

	// Content is the raw message text.
	Content string

	// MentionsBot is true when the bot's identity is mentioned.
	MentionsBot bool

	// ReplyToAuthorID is the author of the message this one replies to,
	// empty when the message is not a reply or the reference did not
	// resolve.
	ReplyToAuthorID string

	Timestamp time.Time
}

// Reply is the outbound embed payload delivered as a reply to the
// triggering message. Presentation fields pass through from the persona.
type Reply struct {
	Title       string
	Description string
	Color       int
	Footer      string
}

// Channel is a connected chat platform.
type Channel interface {
	// Name identifies the platform (e.g. "discord").
	Name() string

	// Connect opens the platform connection.
	Connect(ctx context.Context) error

	// Disconnect closes the platform connection.
	Disconnect() error

	// Receive returns the incoming message stream.
	Receive() <-chan *IncomingMessage

	// SendReply delivers an embed reply to a message in a channel.
	SendReply(ctx context.Context, channelID, replyToID string, reply *Reply) error

	// SendTyping shows a typing indicator while a reply is generated.
	SendTyping(ctx context.Context, channelID string) error

	// IsConnected reports connection state.
	IsConnected() bool
}
