// Package http exposes the dialogue engine over a JSON REST surface,
// with server-sent events for live conversation updates.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/pkg/domain"
)

// Engine is the facade surface the HTTP server drives.
type Engine interface {
	ProcessTurn(ctx context.Context, conversationID, turnToken, message string) (voyago.TurnResult, error)
	Signal(ctx context.Context, conversationID, signal string) (string, error)
	TriggerSearch(ctx context.Context, conversationID string) error
	AttachSuggestions(ctx context.Context, conversationID string, suggestions []domain.Suggestion) error
	Resume(ctx context.Context, conversationID string) (*domain.State, domain.RecoveryInfo, error)
	State(ctx context.Context, conversationID string) (*domain.State, error)
	Delete(ctx context.Context, conversationID string) error
	List(ctx context.Context) ([]string, error)
}

// Server handles the REST and SSE endpoints.
type Server struct {
	engine  Engine
	streams *StreamManager
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*handlerConfig)

type handlerConfig struct {
	logger   *slog.Logger
	registry *prometheus.Registry
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) { c.logger = logger }
}

// WithMetricsRegistry mounts GET /metrics for the given registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *handlerConfig) { c.registry = reg }
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	cfg := handlerConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		engine:  engine,
		streams: NewStreamManager(),
		logger:  cfg.logger,
	}

	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	if cfg.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{}))
	}
	r.Get("/events", s.subscribeEvents)

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.listConversations)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Get("/", s.getConversation)
			r.Delete("/", s.deleteConversation)
			r.Post("/turns", s.postTurn)
			r.Post("/signals", s.postSignal)
			r.Post("/search", s.postSearch)
			r.Post("/suggestions", s.postSuggestions)
			r.Post("/resume", s.postResume)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type turnRequest struct {
	TurnToken string `json:"turnToken"`
	Message   string `json:"message"`
}

func (s *Server) postTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if body.Message == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), id, body.TurnToken, body.Message)
	if err != nil {
		s.logger.Error("turn failed", "conversation", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if payload, err := json.Marshal(result); err == nil {
		s.streams.Broadcast(id, string(payload))
	}
	s.writeJSON(w, http.StatusOK, result)
}

type signalRequest struct {
	Signal string `json:"signal"`
}

func (s *Server) postSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var body signalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	reply, err := s.engine.Signal(r.Context(), id, body.Signal)
	switch {
	case errors.Is(err, domain.ErrUnknownSignal):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, domain.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Error("signal failed", "conversation", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.streams.Broadcast(id, `{"signal":"`+body.Signal+`"}`)
	s.writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) postSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	err := s.engine.TriggerSearch(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotReady):
		s.writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Error("search trigger failed", "conversation", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) postSuggestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var suggestions []domain.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&suggestions); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	err := s.engine.AttachSuggestions(r.Context(), id, suggestions)
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	state, info, err := s.engine.Resume(r.Context(), id)
	if err != nil {
		s.logger.Error("resume failed", "conversation", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":    state,
		"recovery": info,
	})
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	state, err := s.engine.State(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := s.engine.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
