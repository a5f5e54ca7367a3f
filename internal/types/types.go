package types

import "campus-support-backend/internal/agent"

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Mode      string `json:"mode,omitempty"` // auto | email | ticket | faculty
}

type ConfirmRequest struct {
	SessionID    string            `json:"sessionId"`
	Confirmed    bool              `json:"confirmed"`
	EditedFields map[string]string `json:"editedFields,omitempty"`
}

// ChatResponse wraps the orchestrator's tagged response with the session id
// so clients can continue the conversation.
type ChatResponse struct {
	SessionID string             `json:"sessionId"`
	Type      agent.ResponseType `json:"type"`
	Text      string             `json:"text,omitempty"`
	Draft     *agent.Draft       `json:"draft,omitempty"`
	Success   bool               `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
