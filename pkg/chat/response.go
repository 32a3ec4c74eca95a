package chat

// ChatResponse is the body returned by the /chat endpoint. Only the
// response field is part of the contract; anything else is ignored.
type ChatResponse struct {
	Response string `json:"response"` // The model's textual reply
}
