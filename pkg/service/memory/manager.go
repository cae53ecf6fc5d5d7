package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// NoHistoryContext is returned when the session has no recorded
// conversation yet
const NoHistoryContext = "No conversation history yet."

const defaultSearchLimit = 5

// Manager binds one chat session to the long-term memory service. It owns
// the store-side session identity and translates chat messages into the
// store's message format.
type Manager struct {
	store   adapter.MemStore
	profile model.Profile

	sessionID      model.SessionID
	storeSessionID string
	initialized    bool
}

// New creates a memory manager for a session. Missing session and user
// identifiers are generated.
func New(store adapter.MemStore, sessionID model.SessionID, profile model.Profile) *Manager {
	if sessionID == "" {
		sessionID = model.NewSessionID()
	}
	if profile.UserID == "" {
		profile.UserID = model.NewUserID()
	}

	return &Manager{
		store:     store,
		profile:   profile,
		sessionID: sessionID,
	}
}

// Initialize ensures the user exists in the memory store and opens a fresh
// store session. The store session gets a timestamp suffix so repeated
// sessions with the same identifier stay distinct.
func (x *Manager) Initialize(ctx context.Context) error {
	if x.store == nil {
		return goerr.Wrap(model.ErrStoreUnavailable, "no memory store configured")
	}

	if _, err := x.store.GetUser(ctx, string(x.profile.UserID)); err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return goerr.Wrap(err, "failed to look up user")
		}

		user := &adapter.StoreUser{
			UserID:    string(x.profile.UserID),
			Email:     x.profile.Email,
			FirstName: x.profile.FirstName,
			LastName:  x.profile.LastName,
		}
		if _, err := x.store.CreateUser(ctx, user); err != nil {
			return goerr.Wrap(err, "failed to create user", goerr.V("user_id", x.profile.UserID))
		}
		logging.From(ctx).Info("created memory store user", "user_id", x.profile.UserID)
	} else {
		logging.From(ctx).Info("using existing memory store user", "user_id", x.profile.UserID)
	}

	x.storeSessionID = fmt.Sprintf("%s-%d", x.sessionID, time.Now().Unix())
	if err := x.store.CreateSession(ctx, x.storeSessionID, string(x.profile.UserID)); err != nil {
		return goerr.Wrap(err, "failed to create memory session",
			goerr.V("session_id", x.storeSessionID))
	}

	x.initialized = true
	return nil
}

// Initialized reports whether the manager has an open store session
func (x *Manager) Initialized() bool {
	return x.initialized
}

// Profile returns the user profile bound to this session
func (x *Manager) Profile() model.Profile {
	return x.profile
}

// AddMessage persists one conversation turn. The store's role field carries
// the speaker's display name and falls back to "assistant" when the user
// has no name on file.
func (x *Manager) AddMessage(ctx context.Context, msg model.Message) error {
	if !x.initialized {
		return goerr.Wrap(model.ErrNotInitialized, "memory manager is not initialized")
	}

	name := "assistant"
	if msg.Role == model.RoleUser {
		if fullName := x.profile.FullName(); fullName != "" {
			name = fullName
		}
	}

	var ignoreRoles []string
	if x.profile.IgnoreAssistant {
		ignoreRoles = []string{string(model.RoleAssistant)}
	}

	messages := []adapter.StoreMessage{
		{
			Role:     name,
			RoleType: string(msg.Role),
			Content:  msg.Content,
		},
	}

	if err := x.store.AddMessages(ctx, x.storeSessionID, messages, ignoreRoles); err != nil {
		return goerr.Wrap(err, "failed to add message to memory",
			goerr.V("session_id", x.storeSessionID))
	}

	return nil
}

// GetContext retrieves the memory context string for the session
func (x *Manager) GetContext(ctx context.Context) (string, error) {
	if !x.initialized {
		return "", goerr.Wrap(model.ErrNotInitialized, "memory manager is not initialized")
	}

	memCtx, err := x.store.GetSessionContext(ctx, x.storeSessionID)
	if err != nil {
		return "", err
	}

	if memCtx == "" {
		return NoHistoryContext, nil
	}
	return memCtx, nil
}

// SearchFacts queries the memory graph for facts relevant to the query.
// Facts are returned as assistant-role entries.
func (x *Manager) SearchFacts(ctx context.Context, query string, limit int) ([]model.Fact, error) {
	if !x.initialized {
		return nil, goerr.Wrap(model.ErrNotInitialized, "memory manager is not initialized")
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	edges, err := x.store.SearchGraph(ctx, string(x.profile.UserID), query, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memory graph",
			goerr.V("user_id", x.profile.UserID))
	}

	if len(edges) > limit {
		edges = edges[:limit]
	}

	facts := make([]model.Fact, 0, len(edges))
	for _, edge := range edges {
		facts = append(facts, model.Fact{
			Role:    model.RoleAssistant,
			Content: edge.Fact,
		})
	}

	logging.From(ctx).Debug("memory search finished", "query", query, "facts", len(facts))
	return facts, nil
}
