package chat

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/service/memory"
	"github.com/agentfactor/cryptoassist/pkg/tool"
	"github.com/agentfactor/cryptoassist/pkg/tool/memsearch"
)

// Registry maps live session identifiers to their sessions. The key is the
// caller-supplied base identifier; the timestamped store-side identifier
// stays internal to the memory layer.
type Registry struct {
	mu       sync.Mutex
	sessions map[model.SessionID]*Session

	gemini      adapter.Gemini
	store       adapter.MemStore
	cfg         *model.AgentConfig
	domainTools []tool.Tool
}

// NewRegistry creates a session registry. The domain tools are shared
// across sessions; each session gets its own memory-search tool.
func NewRegistry(gemini adapter.Gemini, store adapter.MemStore, cfg *model.AgentConfig, domainTools ...tool.Tool) *Registry {
	return &Registry{
		sessions:    make(map[model.SessionID]*Session),
		gemini:      gemini,
		store:       store,
		cfg:         cfg,
		domainTools: domainTools,
	}
}

// ExecutionReady reports whether the agent execution capability is
// configured
func (r *Registry) ExecutionReady() bool {
	return r.gemini != nil
}

// Create builds and initializes a new session under the given identifier.
// The identifier is reserved before the (slow) initialization runs so a
// concurrent Create with the same identifier fails instead of racing.
func (r *Registry) Create(ctx context.Context, sessionID model.SessionID, profile model.Profile) (*Session, error) {
	r.mu.Lock()
	if _, exists := r.sessions[sessionID]; exists {
		r.mu.Unlock()
		return nil, goerr.Wrap(model.ErrSessionExists, "session already exists",
			goerr.V("session_id", sessionID))
	}
	r.sessions[sessionID] = nil // reserve
	r.mu.Unlock()

	tools := make([]tool.Tool, 0, len(r.domainTools)+1)
	tools = append(tools, r.domainTools...)
	tools = append(tools, memsearch.New())

	mgr := memory.New(r.store, sessionID, profile)
	session := NewSession(r.gemini, r.cfg, mgr, tools...)

	if err := session.Initialize(ctx); err != nil {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		return nil, err
	}

	r.mu.Lock()
	r.sessions[sessionID] = session
	r.mu.Unlock()

	return session, nil
}

// Get looks up a live session. A reserved but not yet committed identifier
// is reported as missing.
func (r *Registry) Get(sessionID model.SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}
