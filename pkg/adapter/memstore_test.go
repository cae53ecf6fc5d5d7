package adapter_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestMemStoreGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, "GET")
		gt.Equal(t, r.URL.Path, "/users/user-123")
		gt.Equal(t, r.Header.Get("Authorization"), "Api-Key test-key")

		json.NewEncoder(w).Encode(adapter.StoreUser{
			UserID:    "user-123",
			FirstName: "Alice",
		})
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")
	user, err := client.GetUser(t.Context(), "user-123")
	gt.NoError(t, err)
	gt.Equal(t, user.UserID, "user-123")
	gt.Equal(t, user.FirstName, "Alice")
}

func TestMemStoreGetUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")
	_, err := client.GetUser(t.Context(), "no-such-user")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUserNotFound))
}

func TestMemStoreCreateSession(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, "POST")
		gt.Equal(t, r.URL.Path, "/sessions")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")
	err := client.CreateSession(t.Context(), "sess-1-1700000000", "user-123")
	gt.NoError(t, err)
	gt.Equal(t, got["session_id"], "sess-1-1700000000")
	gt.Equal(t, got["user_id"], "user-123")
}

func TestMemStoreAddMessages(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/sessions/sess-1/memory")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")

	messages := []adapter.StoreMessage{
		{Role: "Alice Smith", RoleType: "user", Content: "hello"},
	}
	gt.NoError(t, client.AddMessages(t.Context(), "sess-1", messages, nil))

	msgs, ok := got["messages"].([]any)
	gt.True(t, ok)
	gt.A(t, msgs).Length(1)
	_, hasIgnore := got["ignore_roles"]
	gt.False(t, hasIgnore)

	gt.NoError(t, client.AddMessages(t.Context(), "sess-1", messages, []string{"assistant"}))
	ignore, ok := got["ignore_roles"].([]any)
	gt.True(t, ok)
	gt.A(t, ignore).Length(1)
	gt.Equal(t, ignore[0], any("assistant"))
}

func TestMemStoreGetSessionContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions/known/memory" {
			json.NewEncoder(w).Encode(map[string]string{"context": "user likes DeFi"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")

	memCtx, err := client.GetSessionContext(t.Context(), "known")
	gt.NoError(t, err)
	gt.Equal(t, memCtx, "user likes DeFi")

	_, err = client.GetSessionContext(t.Context(), "unknown")
	gt.True(t, errors.Is(err, model.ErrSessionNotFound))
}

func TestMemStoreSearchGraph(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/graph/search")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"edges": []adapter.GraphEdge{
				{Fact: "Alice holds ETH"},
				{Fact: "Alice prefers staking"},
			},
		})
	}))
	defer srv.Close()

	client := adapter.NewMemStore(srv.URL, "test-key")
	edges, err := client.SearchGraph(t.Context(), "user-123", "what does the user hold", 5)
	gt.NoError(t, err)

	gt.A(t, edges).Length(2)
	gt.Equal(t, edges[0].Fact, "Alice holds ETH")
	gt.Equal(t, got["scope"], any("edges"))
	gt.Equal(t, got["limit"], any(float64(5)))
}
