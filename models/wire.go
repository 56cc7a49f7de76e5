package models

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the success body of POST /chat. Only Reply is
// required by clients.
type ChatResponse struct {
	Reply       *string `json:"reply"`
	Timestamp   string  `json:"timestamp,omitempty"`
	UserMessage string  `json:"user_message,omitempty"`
	ID          string  `json:"id,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type KnowledgeResponse struct {
	KnowledgeBase KnowledgeBase `json:"knowledge_base"`
	LastUpdated   string        `json:"last_updated"`
}

type ExchangesResponse struct {
	Exchanges []Exchange `json:"exchanges"`
}
