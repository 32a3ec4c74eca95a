package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/chat"
	"github.com/floatworksco/chatdock/pkg/merkle"
)

// handleChat answers a chat message and records the exchange in the DAG.
// The history travels with the request, so no session IDs are needed:
// content-addressing means identical prefixes deduplicate and divergent
// replies branch from their common ancestor.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	if s.responder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(chat.ErrorResponse{Error: "no responder configured"})
	}

	var req chat.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "message is required"})
	}

	s.logger.Debug("received chat request",
		zap.String("message_preview", truncate(req.Message, 100)),
		zap.Int("history_len", len(req.History)),
	)

	reply, err := s.responder.Respond(c.Context(), req.Message, req.History)
	if err != nil {
		s.logger.Error("responder failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: "upstream request failed"})
	}

	s.logger.Debug("received reply",
		zap.String("reply_preview", truncate(reply, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	// Store the exchange - don't fail the request just because storage failed
	headHash, err := s.storeExchange(c.Context(), &req, reply)
	if err != nil {
		s.logger.Error("failed to store conversation", zap.Error(err))
	} else {
		s.logger.Info("conversation stored", zap.String("head_hash", truncate(headHash, 16)))
	}

	return c.JSON(chat.ChatResponse{Response: reply})
}

// storeExchange stores the conversation turns leading up to and including
// the reply, linking each turn to the previous. If the same history was
// sent before, the nodes already exist and content-addressing deduplicates
// them; when the model replies differently, only the reply node differs,
// branching from the shared prefix. It returns the hash of the head node.
func (s *Server) storeExchange(ctx context.Context, req *chat.ChatRequest, reply string) (string, error) {
	turns := req.History.Clone()

	// Clients send the current message as the final history turn, but if
	// it is absent we append it ourselves so the chain stays complete.
	if len(turns) == 0 || turns[len(turns)-1].Role != chat.RoleUser || turns[len(turns)-1].Text() != req.Message {
		turns = append(turns, chat.UserTurn(req.Message))
	}
	turns = append(turns, chat.ModelTurn(reply))

	var parent *merkle.Node
	for _, turn := range turns {
		node := merkle.NewNode(merkle.MessageBucket(turn, s.config.Model), parent)
		if _, err := s.storer.Put(ctx, node); err != nil {
			return "", fmt.Errorf("storing %s turn: %w", turn.Role, err)
		}

		s.logger.Debug("stored turn in DAG",
			zap.String("hash", truncate(node.Hash, 16)),
			zap.String("role", string(turn.Role)),
			zap.String("content_preview", truncate(turn.Text(), 50)),
		)

		parent = node
	}

	return parent.Hash, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
