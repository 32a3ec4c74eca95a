// Package api provides the chatdock HTTP server: a chat endpoint backed by
// a pluggable responder, with every exchange recorded in a Merkle DAG.
package api

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/chat"
	"github.com/floatworksco/chatdock/pkg/merkle"
)

// Config is the server configuration.
type Config struct {
	// Address to listen on (e.g., ":6061")
	ListenAddr string

	// Model is the name recorded alongside stored conversation turns.
	Model string
}

// Responder produces a reply to a chat message given the conversation so far.
type Responder interface {
	Respond(ctx context.Context, message string, history chat.History) (string, error)
}

// Server is the chatdock HTTP server. It is designed to be stateless: the
// conversation history travels with each request, and the Merkle DAG stores
// turns by content hash so identical conversations deduplicate on their own.
type Server struct {
	config    Config
	storer    merkle.Storer
	responder Responder
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a Server. The responder may be nil, in which case POST
// /chat is unavailable but the DAG endpoints still serve.
func NewServer(config Config, storer merkle.Storer, responder Responder, logger *zap.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		storer:    storer,
		responder: responder,
		logger:    logger,
		app:       app,
	}

	app.Post("/chat", s.handleChat)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// DAG inspection and sync endpoints
	app.Get("/dag/stats", s.handleDAGStats)
	app.Get("/dag/node/:hash", s.handleGetNode)
	app.Get("/dag/history", s.handleListHistories)
	app.Get("/dag/history/:hash", s.handleGetHistory)
	app.Post("/dag/nodes", s.handleIngestNodes)

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("model", s.config.Model),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting server", zap.String("listen", listener.Addr().String()))

	return s.app.Listener(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close shuts down the server and releases storage resources.
func (s *Server) Close() error {
	if err := s.app.Shutdown(); err != nil {
		return err
	}
	return s.storer.Close()
}
