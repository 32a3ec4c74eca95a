// Package upstream implements the chat responder backed by an
// Ollama-compatible /api/chat endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/floatworksco/chatdock/pkg/chat"
)

// Config holds the upstream responder configuration.
type Config struct {
	// URL of the upstream provider (e.g. "http://localhost:11434").
	URL string

	// Model name to request (e.g. "llama3.2").
	Model string

	// SystemPrompt, when set, is prepended as a system message.
	SystemPrompt string
}

// message is the Ollama-compatible chat message shape.
type message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// chatRequest is the Ollama-compatible request body.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse is the subset of the Ollama-compatible response we read.
type chatResponse struct {
	Message message `json:"message"`
}

// Client answers chat exchanges by forwarding them upstream.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates an upstream responder.
func New(config Config) *Client {
	config.URL = strings.TrimRight(config.URL, "/")
	return &Client{
		config: config,
		httpClient: &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Respond maps the chat history onto upstream messages and returns the
// assistant's reply.
func (c *Client) Respond(ctx context.Context, message string, history chat.History) (string, error) {
	req := chatRequest{
		Model:    c.config.Model,
		Messages: toMessages(c.config.SystemPrompt, message, history),
		Stream:   false,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.URL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned %d: %s", httpResp.StatusCode, string(body))
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return resp.Message.Content, nil
}

// toMessages converts chat turns to upstream messages; our "model" role
// is the upstream's "assistant". Clients send the current message as the
// final history turn, but if it is absent we append it ourselves.
func toMessages(systemPrompt, current string, history chat.History) []message {
	messages := make([]message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == chat.RoleModel {
			role = "assistant"
		}
		messages = append(messages, message{Role: role, Content: turn.Text()})
	}
	if len(history) == 0 || history[len(history)-1].Role != chat.RoleUser || history[len(history)-1].Text() != current {
		messages = append(messages, message{Role: "user", Content: current})
	}
	return messages
}
