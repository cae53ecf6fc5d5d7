package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/service/memory"
	"github.com/agentfactor/cryptoassist/pkg/tool"
	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
)

// Soft-failure responses returned as renderable text instead of errors so a
// chat surface always has something to display
const (
	msgNotInitialized = "Error: Agent not initialized. Please check your Gemini API key."
	msgNoMemoryStore  = "Error: Memory store not initialized. Please set the memory store API key."
)

// Session owns one conversation: its memory binding, its tool set, and the
// per-turn protocol. A session allows only one active turn at a time.
type Session struct {
	mu sync.Mutex

	gemini   adapter.Gemini
	cfg      *model.AgentConfig
	memory   *memory.Manager
	registry *tool.Registry

	initialized   bool
	memoryEnabled bool
}

// NewSession creates an uninitialized session. The tool set should include
// the domain tools; the session adds its own memory-search binding through
// the shared tool client.
func NewSession(gemini adapter.Gemini, cfg *model.AgentConfig, mgr *memory.Manager, tools ...tool.Tool) *Session {
	return &Session{
		gemini:   gemini,
		cfg:      cfg,
		memory:   mgr,
		registry: tool.New(tools...),
	}
}

// Initialize opens the memory session and prepares the tool set. A missing
// memory store configuration disables memory rather than failing the
// session.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return goerr.New("session already initialized")
	}

	if err := s.memory.Initialize(ctx); err != nil {
		if !errors.Is(err, model.ErrStoreUnavailable) {
			return goerr.Wrap(err, "failed to initialize session memory")
		}
		logging.From(ctx).Warn("memory store not configured, continuing without memory")
	} else {
		s.memoryEnabled = true
	}

	client := &tool.Client{Gemini: s.gemini}
	if s.memoryEnabled {
		client.Memory = memory.NewRetriever(s.memory)
	}

	if err := s.registry.Init(ctx, client); err != nil {
		return goerr.Wrap(err, "failed to initialize tools")
	}

	s.initialized = true
	return nil
}

// MemoryEnabled reports whether the session has a live memory store binding
func (s *Session) MemoryEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryEnabled
}

// Profile returns the user profile bound to this session
func (s *Session) Profile() model.Profile {
	return s.memory.Profile()
}

// MemoryContext returns the current memory context for the session
func (s *Session) MemoryContext(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || !s.memoryEnabled {
		return "", goerr.Wrap(model.ErrNotInitialized, "session has no memory binding")
	}

	return s.memory.GetContext(ctx)
}

// Chat runs one conversation turn: persist the user message, refresh the
// memory context, rebuild instructions, run the agent, persist the reply.
// Precondition failures return renderable text with a nil error.
func (s *Session) Chat(ctx context.Context, userInput string, medievalMode bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return msgNotInitialized, nil
	}
	if !s.memoryEnabled {
		return msgNoMemoryStore, nil
	}

	if err := s.memory.AddMessage(ctx, model.Message{Role: model.RoleUser, Content: userInput}); err != nil {
		return "", goerr.Wrap(err, "failed to persist user message")
	}

	memCtx, err := s.memory.GetContext(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to refresh memory context")
	}

	instructions := buildInstructions(&s.cfg.Orchestrator, medievalMode, memCtx)
	if toolPrompts := s.registry.Prompts(ctx); toolPrompts != "" {
		instructions += "\n\n" + toolPrompts
	}

	response, err := runAgent(ctx, s.gemini, s.registry, instructions, userInput)
	if err != nil {
		return "", err
	}

	if err := s.memory.AddMessage(ctx, model.Message{Role: model.RoleAssistant, Content: response}); err != nil {
		return "", goerr.Wrap(err, "failed to persist assistant message")
	}

	return response, nil
}

// buildInstructions assembles the system instructions for one turn from the
// configured template and the current memory context
func buildInstructions(cfg *model.OrchestratorConfig, medievalMode bool, memoryContext string) string {
	base := cfg.Instructions
	if medievalMode {
		base = cfg.MedievalInstructions
	}
	return base + "\n" + "Memory Context: " + memoryContext
}
