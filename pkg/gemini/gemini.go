// Package gemini implements the chat responder backed by Google's
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/floatworksco/chatdock/pkg/chat"
)

// DefaultSystemPrompt is used when the config does not override it.
const DefaultSystemPrompt = `You are a helpful assistant embedded in a web application.
Answer the user's query concisely in natural language, using the
conversation history for context.`

// historyWindow is how many trailing turns are folded into the prompt.
// Older turns are dropped; the widget still sends everything.
const historyWindow = 5

// Config holds the Gemini responder configuration.
type Config struct {
	// APIKey for the Gemini API (required).
	APIKey string

	// Model name (default: "gemini-2.0-flash").
	Model string

	// SystemPrompt prefixed to every exchange (default: DefaultSystemPrompt).
	SystemPrompt string
}

// Client answers chat exchanges with a Gemini model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	config Config
}

// New creates a Gemini responder.
func New(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(0.3)

	return &Client{client: client, model: model, config: config}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Respond sends one prompt built from the system instruction, a trailing
// window of the history, and the user's query.
func (c *Client) Respond(ctx context.Context, message string, history chat.History) (string, error) {
	prompt := BuildPrompt(c.config.SystemPrompt, message, history)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// BuildPrompt folds the system instruction, the last turns of the
// history, and the user query into a single prompt string.
func BuildPrompt(system, message string, history chat.History) string {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n")

	if len(history) > 0 {
		b.WriteString("Conversation History:\n")
		start := 0
		if len(history) > historyWindow {
			start = len(history) - historyWindow
		}
		for _, turn := range history[start:] {
			role := "User"
			if turn.Role == chat.RoleModel {
				role = "Assistant"
			}
			b.WriteString(role)
			b.WriteString(": ")
			b.WriteString(turn.Text())
			b.WriteString("\n")
		}
	}

	b.WriteString("User Query: ")
	b.WriteString(message)
	return b.String()
}
