package server

// CreateSessionRequest is the body of the create-session endpoint. All
// fields are optional; missing identifiers are generated.
type CreateSessionRequest struct {
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	IgnoreAssistant bool   `json:"ignore_assistant,omitempty"`
}

// ChatRequest is the body of the chat endpoint
type ChatRequest struct {
	SessionID    string `json:"session_id"`
	UserInput    string `json:"user_input"`
	MedievalMode bool   `json:"medieval_mode,omitempty"`
}

// ChatResponse is the uniform chat envelope. OriginalPayload always echoes
// the request untouched.
type ChatResponse struct {
	Response        string      `json:"response"`
	Status          Status      `json:"status"`
	OriginalPayload ChatRequest `json:"original_payload"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type memoryResponse struct {
	Memory string `json:"memory"`
}

type errorResponse struct {
	Error string `json:"error"`
}
