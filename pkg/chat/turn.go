// Package chat defines the wire types for the chat exchange: the
// conversation turns the widget accumulates and the request/response
// bodies exchanged with the /chat endpoint.
package chat

import "strings"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one unit of conversation history. Turns are immutable once
// appended to a History.
type Turn struct {
	Role  Role     `json:"role"`  // "user" or "model"
	Parts []string `json:"parts"` // Ordered message fragments
}

// History is the ordered, append-only sequence of turns for a session.
type History []Turn

// UserTurn builds a single-part user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []string{text}}
}

// ModelTurn builds a single-part model turn.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []string{text}}
}

// Text joins the turn's parts into a single string.
func (t Turn) Text() string {
	return strings.Join(t.Parts, "")
}

// Clone returns an independent copy of the history. Turns share their
// part slices; callers treat turns as immutable.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
