package model

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Turns are append-only per session
// and persisted in the order they occur.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Fact is one unit of semantic search output over persisted history.
// Facts are supplementary tool output and are never persisted themselves.
type Fact struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
