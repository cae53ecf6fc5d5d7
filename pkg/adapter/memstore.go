package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// MemStore is the interface for the long-term memory service
type MemStore interface {
	GetUser(ctx context.Context, userID string) (*StoreUser, error)
	CreateUser(ctx context.Context, user *StoreUser) (*StoreUser, error)
	CreateSession(ctx context.Context, sessionID, userID string) error
	AddMessages(ctx context.Context, sessionID string, messages []StoreMessage, ignoreRoles []string) error
	GetSessionContext(ctx context.Context, sessionID string) (string, error)
	SearchGraph(ctx context.Context, userID, query string, limit int) ([]GraphEdge, error)
}

// StoreUser is the user record held by the memory service
type StoreUser struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// StoreMessage is a single conversation turn as persisted by the memory
// service. Role carries the speaker's display name, RoleType the literal
// chat role.
type StoreMessage struct {
	Role     string `json:"role"`
	RoleType string `json:"role_type"`
	Content  string `json:"content"`
}

// GraphEdge is a fact extracted by the memory service's knowledge graph
type GraphEdge struct {
	Fact string `json:"fact"`
}

type MemStoreClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type MemStoreOption func(*MemStoreClient)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests
func WithHTTPClient(client *http.Client) MemStoreOption {
	return func(m *MemStoreClient) {
		m.httpClient = client
	}
}

// NewMemStore creates a client for the memory service API
func NewMemStore(baseURL, apiKey string, opts ...MemStoreOption) *MemStoreClient {
	m := &MemStoreClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (x *MemStoreClient) GetUser(ctx context.Context, userID string) (*StoreUser, error) {
	var user StoreUser
	if err := x.do(ctx, "GET", "/users/"+userID, nil, &user); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, goerr.Wrap(model.ErrUserNotFound, "user not found in memory store", goerr.V("user_id", userID))
		}
		return nil, err
	}
	return &user, nil
}

func (x *MemStoreClient) CreateUser(ctx context.Context, user *StoreUser) (*StoreUser, error) {
	var created StoreUser
	if err := x.do(ctx, "POST", "/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (x *MemStoreClient) CreateSession(ctx context.Context, sessionID, userID string) error {
	body := map[string]string{
		"session_id": sessionID,
		"user_id":    userID,
	}
	return x.do(ctx, "POST", "/sessions", body, nil)
}

func (x *MemStoreClient) AddMessages(ctx context.Context, sessionID string, messages []StoreMessage, ignoreRoles []string) error {
	body := map[string]any{
		"messages": messages,
	}
	if len(ignoreRoles) > 0 {
		body["ignore_roles"] = ignoreRoles
	}
	return x.do(ctx, "POST", "/sessions/"+sessionID+"/memory", body, nil)
}

func (x *MemStoreClient) GetSessionContext(ctx context.Context, sessionID string) (string, error) {
	var resp struct {
		Context string `json:"context"`
	}
	if err := x.do(ctx, "GET", "/sessions/"+sessionID+"/memory", nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", goerr.Wrap(model.ErrSessionNotFound, "session not found in memory store", goerr.V("session_id", sessionID))
		}
		return "", err
	}
	return resp.Context, nil
}

func (x *MemStoreClient) SearchGraph(ctx context.Context, userID, query string, limit int) ([]GraphEdge, error) {
	body := map[string]any{
		"user_id": userID,
		"query":   query,
		"scope":   "edges",
		"limit":   limit,
	}

	var resp struct {
		Edges []GraphEdge `json:"edges"`
	}
	if err := x.do(ctx, "POST", "/graph/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Edges, nil
}

var errNotFound = goerr.New("memory store returned not found")

// do sends one request to the memory service and decodes the response into
// out when out is non-nil
func (x *MemStoreClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to create request")
	}

	req.Header.Set("Authorization", "Api-Key "+x.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request", goerr.V("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return goerr.Wrap(errNotFound, "request failed", goerr.V("path", path))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return goerr.New(fmt.Sprintf("memory store returned status %d", resp.StatusCode),
			goerr.V("path", path),
			goerr.V("body", string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
		}
	}

	return nil
}
