// Package audit posts compact embed notifications about engine activity
// (auto-replies, admin actions) to a configured Discord webhook.
// Delivery is best-effort: a failed post is logged and dropped, never
// retried, and never blocks the reply path.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// embedColor is the neutral dark shade used for audit embeds.
const embedColor = 0x2F3136

// Notifier delivers audit events to a Discord-compatible webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a notifier. An empty webhookURL disables delivery.
func New(webhookURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		logger:     logger.With("component", "audit"),
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

// webhookPayload is the Discord webhook execute body.
type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields,omitempty"`
	Footer      *webhookFooter `json:"footer,omitempty"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

// Notify posts one audit event. Errors are logged, not returned: auditing
// must never fail the action it describes.
func (n *Notifier) Notify(ctx context.Context, event aura.AuditEvent) {
	if n.webhookURL == "" {
		return
	}

	description := event.Details
	if description == "" {
		description = "—"
	}

	payload := webhookPayload{
		Embeds: []webhookEmbed{{
			Title:       event.Title,
			Description: description,
			Color:       embedColor,
			Fields: []webhookField{
				{Name: "Actor", Value: actorOrSystem(event.Actor), Inline: true},
			},
			Footer: &webhookFooter{
				Text: fmt.Sprintf("Time: %s", time.Now().UTC().Format("2006-01-02 15:04:05")),
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("audit payload marshal failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("audit request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("audit webhook post failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("audit webhook rejected", "status", resp.StatusCode)
	}
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "System"
	}
	return actor
}

// Compile-time interface verification.
var _ aura.Auditor = (*Notifier)(nil)
