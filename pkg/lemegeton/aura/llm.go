// Package aura – llm.go implements the completion client.
// Uses the OpenAI-compatible chat completions format, which works with
// OpenAI, Anthropic proxies, and any compatible endpoint.
package aura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CompletionClient is the language-model collaborator contract. A failed
// call is never fatal: the engine substitutes the fallback reply and keeps
// memory consistent with what the user saw.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, conversation []Turn) (string, error)
}

// ErrCompletionTimeout marks a completion that ran past its deadline.
// All other completion failures are generic transient errors.
var ErrCompletionTimeout = errors.New("completion timed out")

// IsTimeout reports whether err is a completion timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrCompletionTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// LLMClient is the HTTP completion client.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLLMClient creates a completion client from config.
func NewLLMClient(cfg *Config, logger *slog.Logger) *LLMClient {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 16 * time.Second
	}

	return &LLMClient{
		baseURL:    baseURL,
		apiKey:     cfg.API.APIKey,
		model:      cfg.Model,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "llm"),
	}
}

// ---------- Wire Types (OpenAI-compatible) ----------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the persona system prompt plus the conversation and
// returns the generated text. The call is bounded by the configured
// timeout regardless of the caller's context.
func (c *LLMClient) Complete(ctx context.Context, systemPrompt string, conversation []Turn) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured. Run 'lemegeton config set-key' or set LEMEGETON_API_KEY")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]chatMessage, 0, len(conversation)+1)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, t := range conversation {
		messages = append(messages, chatMessage{Role: t.Role, Content: t.Content})
	}

	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrCompletionTimeout, err)
		}
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error",
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 500),
		)
		return "", fmt.Errorf("API returned %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	c.logger.Info("chat completion done",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"messages", len(messages),
		"finish_reason", chatResp.Choices[0].FinishReason,
	)
	return content, nil
}

// truncate shortens s to max runes for log output, never splitting a
// multi-byte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
