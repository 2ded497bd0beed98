// Package llm is a minimal client for a local Ollama-compatible
// chat-completion endpoint. One prompt in, one unstructured text answer out;
// interpreting that text is the caller's problem.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"expensebot/internal/config"
	"expensebot/internal/log"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message message `json:"message"`
	Error   string  `json:"error"`
}

// Client talks to one model on one Ollama host. Stateless; safe for
// concurrent use.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// New builds a client for the configured host and model. Chat calls carry no
// timeout: local model inference can take minutes and is not cancellable
// once issued.
func New(cfg config.Config, logger *log.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.OllamaHost, "/"),
		model:      cfg.OllamaModel,
		httpClient: &http.Client{},
		logger:     logger.WithComponent(log.ComponentLLM),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Chat sends one user-role prompt and returns the model's raw text reply.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("llm chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm chat: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm chat: http status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm chat: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("llm chat: %s", parsed.Error)
	}

	c.logger.DebugContext(ctx, "Chat completed",
		log.FieldModel, c.model,
		log.FieldDuration, time.Since(start).Milliseconds(),
		"response_bytes", len(parsed.Message.Content))
	return parsed.Message.Content, nil
}

// Ping checks that the Ollama host is reachable, so callers can report a
// missing model server before starting a long pipeline.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("llm ping: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm ping: http status %d", resp.StatusCode)
	}
	return nil
}
