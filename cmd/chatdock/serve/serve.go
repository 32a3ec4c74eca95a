package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/api"
	"github.com/floatworksco/chatdock/pkg/config"
	"github.com/floatworksco/chatdock/pkg/gemini"
	"github.com/floatworksco/chatdock/pkg/logger"
	"github.com/floatworksco/chatdock/pkg/merkle"
	"github.com/floatworksco/chatdock/pkg/storage/inmemory"
	"github.com/floatworksco/chatdock/pkg/storage/sqlite"
	"github.com/floatworksco/chatdock/pkg/upstream"
)

const serveLongDesc string = `Run the chatdock server.

Answers POST /chat with a Gemini-backed reply when GEMINI_API_KEY is
set, falling back to an Ollama-compatible upstream otherwise. Every
exchange is recorded in a content-addressed conversation DAG, served
from the /dag endpoints.

Examples:
  chatdock serve
  chatdock serve --listen :7070 --sqlite ~/.chatdock/chatdock.db
  chatdock serve --upstream http://localhost:11434 --model llama3.2`

const serveShortDesc string = "Run the chatdock server"

type serveCommander struct {
	listenAddr string
	sqlitePath string
	upstream   string
	model      string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database (default: in-memory)")
	cmd.Flags().StringVarP(&cmder.upstream, "upstream", "u", "", "Ollama-compatible upstream URL")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model to request")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the config file
	if c.listenAddr != "" {
		cfg.Server.ListenAddr = c.listenAddr
	}
	if c.sqlitePath != "" {
		cfg.Server.DBPath = c.sqlitePath
	}
	if c.upstream != "" {
		cfg.Server.UpstreamURL = c.upstream
	}

	log := logger.New(c.debug || cfg.Debug)
	defer log.Sync()

	var storer merkle.Storer
	if cfg.Server.DBPath != "" {
		storer, err = sqlite.NewDriver(ctx, cfg.Server.DBPath)
		if err != nil {
			return fmt.Errorf("could not open database %s: %w", cfg.Server.DBPath, err)
		}
		log.Info("using SQLite storage", zap.String("path", cfg.Server.DBPath))
	} else {
		storer = inmemory.NewDriver()
		log.Info("using in-memory storage")
	}
	defer storer.Close()

	responder, model, err := c.buildResponder(ctx, cfg)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: cfg.Server.ListenAddr,
		Model:      model,
	}, storer, responder, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	return server.Run()
}

// buildResponder picks Gemini when an API key is configured, otherwise
// the Ollama-compatible upstream.
func (c *serveCommander) buildResponder(ctx context.Context, cfg *config.Config) (api.Responder, string, error) {
	if cfg.Gemini.APIKey != "" {
		model := cfg.Gemini.Model
		if c.model != "" {
			model = c.model
		}
		responder, err := gemini.New(ctx, gemini.Config{
			APIKey:       cfg.Gemini.APIKey,
			Model:        model,
			SystemPrompt: cfg.Gemini.SystemPrompt,
		})
		if err != nil {
			return nil, "", fmt.Errorf("could not create Gemini client: %w", err)
		}
		return responder, model, nil
	}

	model := cfg.Server.UpstreamModel
	if c.model != "" {
		model = c.model
	}
	systemPrompt := cfg.Gemini.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = gemini.DefaultSystemPrompt
	}
	responder := upstream.New(upstream.Config{
		URL:          cfg.Server.UpstreamURL,
		Model:        model,
		SystemPrompt: systemPrompt,
	})
	return responder, model, nil
}
