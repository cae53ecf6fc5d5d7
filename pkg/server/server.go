package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/usecase/chat"
	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Server exposes the session and chat API over HTTP
type Server struct {
	addr     string
	registry *chat.Registry
}

// New creates an HTTP server bound to the given session registry
func New(addr string, registry *chat.Registry) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
	}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create-session/{session_id}", s.handleCreateSession)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /memory/{session_id}", s.handleReadMemory)
	return mux
}

// Start runs the HTTP server until the context is cancelled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.From(ctx).Info("starting server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "server failed")
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down server")
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	profile := model.Profile{
		UserID:          model.UserID(req.UserID),
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		IgnoreAssistant: req.IgnoreAssistant,
	}

	if _, err := s.registry.Create(r.Context(), model.SessionID(sessionID), profile); err != nil {
		if errors.Is(err, model.ErrSessionExists) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("Session %q already exists.", sessionID),
			})
			return
		}

		logging.From(r.Context()).Error("failed to create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Session %q created.", sessionID),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp := Envelope(r.Context(), s.registry.ExecutionReady(), req, func(ctx context.Context) (string, error) {
		session, ok := s.registry.Get(model.SessionID(req.SessionID))
		if !ok {
			return "", goerr.Wrap(model.ErrSessionNotFound,
				fmt.Sprintf("Session %q not found.", req.SessionID))
		}
		return session.Chat(ctx, req.UserInput, req.MedievalMode)
	})

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadMemory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	session, ok := s.registry.Get(model.SessionID(sessionID))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("Session %q not found.", sessionID),
		})
		return
	}

	memCtx, err := session.MemoryContext(r.Context())
	if err != nil {
		logging.From(r.Context()).Error("failed to read memory", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, memoryResponse{Memory: memCtx})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
