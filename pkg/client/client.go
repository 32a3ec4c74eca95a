// Package client implements the widget's HTTP exchanger: a single JSON
// POST to the chat endpoint per send.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/floatworksco/chatdock/pkg/chat"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the chat server (e.g. "http://localhost:6061").
	BaseURL string

	// Path of the chat endpoint (default: "/chat").
	Path string
}

// Client posts chat exchanges to a remote endpoint. The zero timeout is
// deliberate: an exchange waits until the transport resolves or errors.
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a chat client.
func New(config Config) *Client {
	if config.Path == "" {
		config.Path = "/chat"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config:     config,
		httpClient: &http.Client{},
	}
}

// Exchange sends one message with the full accumulated history and
// returns the endpoint's textual response. Transport errors, non-2xx
// statuses, and unparseable bodies are all one failure kind; a parseable
// body without a response field yields an empty reply.
func (c *Client) Exchange(ctx context.Context, message string, history chat.History) (string, error) {
	body, err := json.Marshal(chat.ChatRequest{Message: message, History: history})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + c.config.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chat.ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return chatResp.Response, nil
}
