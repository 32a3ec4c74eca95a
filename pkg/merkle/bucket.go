package merkle

import "github.com/floatworksco/chatdock/pkg/chat"

// Bucket is the typed node content for a recorded chat message. The
// chat handler stores one Bucket per turn; deduplication and branching
// fall out of content-addressing over this shape.
type Bucket struct {
	Kind  string   `json:"kind"` // always "message"
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
	Model string   `json:"model,omitempty"`
}

// MessageBucket builds the node content for one turn.
func MessageBucket(turn chat.Turn, model string) Bucket {
	return Bucket{
		Kind:  "message",
		Role:  string(turn.Role),
		Parts: turn.Parts,
		Model: model,
	}
}
