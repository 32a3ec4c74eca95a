package chat

// ChatRequest is the body POSTed to the /chat endpoint. History carries
// the entire accumulated conversation, including the turn for Message
// itself.
type ChatRequest struct {
	Message string  `json:"message"` // The raw user message text
	History History `json:"history"` // Full conversation so far
}
