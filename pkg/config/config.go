// Package config loads chatdock configuration from ~/.chatdock/config.toml,
// with environment variable overrides and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Defaults applied when the config file or a field is absent.
const (
	DefaultListenAddr  = ":6061"
	DefaultServerURL   = "http://localhost:6061"
	DefaultUpstreamURL = "http://localhost:11434"
	DefaultModel       = "gemini-2.0-flash"
)

// Config is the complete chatdock configuration.
type Config struct {
	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	Server Server `toml:"server"`
	Chat   Chat   `toml:"chat"`
	Gemini Gemini `toml:"gemini"`
}

// Server configures the chatdock server.
type Server struct {
	// ListenAddr is the address to listen on (e.g., ":6061").
	ListenAddr string `toml:"listen_addr"`
	// DBPath is the SQLite database path. Empty means in-memory.
	DBPath string `toml:"db_path"`
	// UpstreamURL is the Ollama-compatible provider used when no Gemini
	// API key is configured (e.g., "http://localhost:11434").
	UpstreamURL string `toml:"upstream_url"`
	// UpstreamModel is the model requested from the upstream provider.
	UpstreamModel string `toml:"upstream_model"`
}

// Chat configures the chat client.
type Chat struct {
	// ServerURL is the chatdock server the chat command talks to.
	ServerURL string `toml:"server_url"`
}

// Gemini configures the Gemini responder.
type Gemini struct {
	// APIKey for the Gemini API. The GEMINI_API_KEY environment variable
	// takes precedence; a .env file in the working directory is honored.
	APIKey string `toml:"api_key"`
	// Model name (e.g., "gemini-2.0-flash").
	Model string `toml:"model"`
	// SystemPrompt overrides the built-in assistant instructions.
	SystemPrompt string `toml:"system_prompt"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			ListenAddr:    DefaultListenAddr,
			UpstreamURL:   DefaultUpstreamURL,
			UpstreamModel: "llama3.2",
		},
		Chat: Chat{
			ServerURL: DefaultServerURL,
		},
		Gemini: Gemini{
			Model: DefaultModel,
		},
	}
}

// Path returns the config file location (~/.chatdock/config.toml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatdock", "config.toml"), nil
}

// Load reads the config file if present, applies environment overrides,
// and fills in defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides layers environment variables over the file values.
// A .env file in the working directory is loaded first, if present.
func (c *Config) applyEnvOverrides() {
	_ = godotenv.Load()

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("CHATDOCK_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("CHATDOCK_SERVER_URL"); v != "" {
		c.Chat.ServerURL = v
	}
	if v := os.Getenv("CHATDOCK_DB"); v != "" {
		c.Server.DBPath = v
	}
}

// setDefaults fills any fields a partial config file left empty.
func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.UpstreamURL == "" {
		c.Server.UpstreamURL = DefaultUpstreamURL
	}
	if c.Server.UpstreamModel == "" {
		c.Server.UpstreamModel = "llama3.2"
	}
	if c.Chat.ServerURL == "" {
		c.Chat.ServerURL = DefaultServerURL
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultModel
	}
}
