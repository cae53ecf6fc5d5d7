package model

import (
	"strings"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

type UserID string

// NewUserID generates a short random UserID with a "user-" prefix
func NewUserID() UserID {
	return UserID("user-" + uuid.New().String()[:8])
}

// Profile holds the end-user identity attached to a session.
// UserID may be shared across sessions; the remaining fields are optional.
type Profile struct {
	UserID          UserID
	Email           string
	FirstName       string
	LastName        string
	IgnoreAssistant bool
}

// FullName returns the user's display name, or an empty string when no
// first name is known.
func (p Profile) FullName() string {
	if p.FirstName == "" {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
