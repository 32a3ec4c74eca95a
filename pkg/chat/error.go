package chat

// ErrorResponse represents an error body from the chat endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
