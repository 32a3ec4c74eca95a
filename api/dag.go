package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/chat"
	"github.com/floatworksco/chatdock/pkg/merkle"
)

// handleDAGStats returns statistics about the DAG.
func (s *Server) handleDAGStats(c *fiber.Ctx) error {
	ctx := c.Context()

	nodes, err := s.storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to list nodes"})
	}

	roots, err := s.storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to get roots"})
	}

	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to get leaves"})
	}

	stats := map[string]any{
		"total_nodes": len(nodes),
		"root_count":  len(roots),
		"leaf_count":  len(leaves),
	}

	return c.JSON(stats)
}

// handleGetNode returns a single node by its hash.
func (s *Server) handleGetNode(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "hash parameter required"})
	}

	node, err := s.storer.Get(c.Context(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(chat.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(node)
}

// HistoryResponse contains the conversation history for a given node.
type HistoryResponse struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// HistoryMessage represents a message in the conversation history.
type HistoryMessage struct {
	Hash       string  `json:"hash"`
	ParentHash *string `json:"parent_hash,omitempty"`
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	Model      string  `json:"model,omitempty"`
}

// handleListHistories returns all conversation histories (one per leaf node).
// This is useful for manual testing and debugging.
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	ctx := c.Context()

	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to get leaves"})
	}

	histories := make([]HistoryResponse, 0, len(leaves))
	for _, leaf := range leaves {
		history, err := s.buildHistory(ctx, leaf.Hash)
		if err != nil {
			s.logger.Warn("failed to build history for leaf", zap.String("hash", leaf.Hash), zap.Error(err))
			continue
		}
		histories = append(histories, *history)
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

// handleGetHistory returns the full conversation history leading up to a
// given node, in chronological order (oldest first).
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "hash parameter required"})
	}

	history, err := s.buildHistory(c.Context(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(chat.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(history)
}

// IngestResponse summarizes a batch node upload.
type IngestResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// handleIngestNodes accepts a batch of nodes pushed from another store.
// Content-addressing makes the operation idempotent: nodes already present
// count as duplicates.
func (s *Server) handleIngestNodes(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		s.logger.Error("failed to parse nodes", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "invalid request body"})
	}

	ctx := c.Context()
	var result IngestResponse
	for _, node := range nodes {
		isNew, err := s.storer.Put(ctx, node)
		if err != nil {
			s.logger.Warn("failed to store pushed node", zap.Error(err))
			result.Errors++
			continue
		}
		if isNew {
			result.New++
		} else {
			result.Duplicate++
		}
	}

	s.logger.Info("ingested nodes",
		zap.Int("new", result.New),
		zap.Int("duplicate", result.Duplicate),
		zap.Int("errors", result.Errors),
	)

	return c.JSON(result)
}

// buildHistory constructs a HistoryResponse for the given node hash.
func (s *Server) buildHistory(ctx context.Context, hash string) (*HistoryResponse, error) {
	// Ancestry returns newest first, i.e., from hash back to root
	ancestry, err := s.storer.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}

	messages := make([]HistoryMessage, len(ancestry))
	for i, node := range ancestry {
		// Place in reverse order (oldest first)
		idx := len(ancestry) - 1 - i

		msg := HistoryMessage{
			Hash:       node.Hash,
			ParentHash: node.ParentHash,
		}

		// Content is a Bucket when stored in-process and a generic map
		// after a JSON round-trip through SQLite or the push endpoint.
		switch content := node.Content.(type) {
		case merkle.Bucket:
			msg.Role = content.Role
			msg.Content = strings.Join(content.Parts, "")
			msg.Model = content.Model
		case map[string]any:
			if role, ok := content["role"].(string); ok {
				msg.Role = role
			}
			if parts, ok := content["parts"].([]any); ok {
				strs := make([]string, 0, len(parts))
				for _, p := range parts {
					if str, ok := p.(string); ok {
						strs = append(strs, str)
					}
				}
				msg.Content = strings.Join(strs, "")
			}
			if model, ok := content["model"].(string); ok {
				msg.Model = model
			}
		}

		messages[idx] = msg
	}

	return &HistoryResponse{
		Messages: messages,
		HeadHash: hash,
		Depth:    len(messages),
	}, nil
}
