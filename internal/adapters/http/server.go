// Package http exposes stored undo histories over a read-only JSON API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/keystone/internal/logging"
	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stack names accepted by the events endpoint.
const (
	StackUndo = "undo"
	StackRedo = "redo"
)

// SessionView is the response body of GET /sessions/{id}.
type SessionView struct {
	ID         string             `json:"id"`
	UndoLevels int                `json:"undo_levels"`
	RedoLevels int                `json:"redo_levels"`
	UndoEvents []domain.UndoEvent `json:"undo_events"`
	RedoEvents []domain.UndoEvent `json:"redo_events"`
}

// Server serves the histories of a HistoryStore.
type Server struct {
	Store    ports.HistoryStore
	Gatherer prometheus.Gatherer
	Version  string
	Logger   *slog.Logger
}

type Option func(*Server)

// WithGatherer exposes gatherer on /metrics. Without it the endpoint is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the router for store.
func NewHandler(store ports.HistoryStore, opts ...Option) http.Handler {
	s := &Server{
		Store:   store,
		Version: "dev",
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Get("/{id}", s.getSession)
		r.Get("/{id}/events/{stack}", s.getEvents)
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "keystone-http",
		"version": s.Version,
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h, err := s.Store.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionView{
		ID:         id,
		UndoLevels: len(h.UndoEvents),
		RedoLevels: len(h.RedoEvents),
		UndoEvents: nonNil(h.UndoEvents),
		RedoEvents: nonNil(h.RedoEvents),
	})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	stack := chi.URLParam(r, "stack")
	if stack != StackUndo && stack != StackRedo {
		http.Error(w, "stack must be undo or redo", http.StatusBadRequest)
		return
	}
	h, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events := h.UndoEvents
	if stack == StackRedo {
		events = h.RedoEvents
	}
	s.writeJSON(w, http.StatusOK, nonNil(events))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.Logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode response", "err", err)
	}
}

func nonNil(events []domain.UndoEvent) []domain.UndoEvent {
	if events == nil {
		return []domain.UndoEvent{}
	}
	return events
}
