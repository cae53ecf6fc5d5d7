package memsearch_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/service/memory"
	"github.com/agentfactor/cryptoassist/pkg/tool"
	"github.com/agentfactor/cryptoassist/pkg/tool/memsearch"
)

type stubStore struct {
	edges []adapter.GraphEdge
}

func (s *stubStore) GetUser(ctx context.Context, userID string) (*adapter.StoreUser, error) {
	return &adapter.StoreUser{UserID: userID}, nil
}

func (s *stubStore) CreateUser(ctx context.Context, user *adapter.StoreUser) (*adapter.StoreUser, error) {
	return user, nil
}

func (s *stubStore) CreateSession(ctx context.Context, sessionID, userID string) error {
	return nil
}

func (s *stubStore) AddMessages(ctx context.Context, sessionID string, messages []adapter.StoreMessage, ignoreRoles []string) error {
	return nil
}

func (s *stubStore) GetSessionContext(ctx context.Context, sessionID string) (string, error) {
	return "", nil
}

func (s *stubStore) SearchGraph(ctx context.Context, userID, query string, limit int) ([]adapter.GraphEdge, error) {
	return s.edges, nil
}

func newRetriever(t *testing.T, store adapter.MemStore) *memory.Retriever {
	t.Helper()
	mgr := memory.New(store, "sess-1", model.Profile{UserID: "user-abc"})
	gt.NoError(t, mgr.Initialize(t.Context()))
	return memory.NewRetriever(mgr)
}

func TestMemSearchInitRequiresMemory(t *testing.T) {
	searchTool := memsearch.New()

	enabled, err := searchTool.Init(t.Context(), &tool.Client{})
	gt.NoError(t, err)
	gt.False(t, enabled)

	retriever := newRetriever(t, &stubStore{})
	enabled, err = searchTool.Init(t.Context(), &tool.Client{Memory: retriever})
	gt.NoError(t, err)
	gt.True(t, enabled)
}

func TestMemSearchExecute(t *testing.T) {
	retriever := newRetriever(t, &stubStore{
		edges: []adapter.GraphEdge{{Fact: "Alice holds ETH"}},
	})

	searchTool := memsearch.New()
	_, err := searchTool.Init(t.Context(), &tool.Client{Memory: retriever})
	gt.NoError(t, err)

	resp, err := searchTool.Execute(t.Context(), genai.FunctionCall{
		Name: "search_memory",
		Args: map[string]any{"query": "holdings"},
	})
	gt.NoError(t, err)

	result, ok := resp.Response["result"].(string)
	gt.True(t, ok)
	gt.S(t, result).Contains("Facts about the user:")
	gt.S(t, result).Contains("Alice holds ETH")
}

func TestMemSearchExecuteNoFacts(t *testing.T) {
	retriever := newRetriever(t, &stubStore{})

	searchTool := memsearch.New()
	_, err := searchTool.Init(t.Context(), &tool.Client{Memory: retriever})
	gt.NoError(t, err)

	resp, err := searchTool.Execute(t.Context(), genai.FunctionCall{
		Name: "search_memory",
		Args: map[string]any{"query": "holdings"},
	})
	gt.NoError(t, err)
	gt.Equal(t, resp.Response["result"], any(memory.NoRelevantFacts))
}
