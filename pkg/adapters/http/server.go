package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Subscriber is implemented by session services that can stream per-step diffs.
type Subscriber interface {
	Subscribe(ctx context.Context, id string) (<-chan *domain.SnapshotDiff, error)
}

// Server exposes a SessionService over JSON and server-sent events.
type Server struct {
	Sessions ports.SessionService
	Library  ports.TemplateLoader
	Store    ports.TemplateStore
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLibrary enables the /templates routes and template_id on session creation.
func WithLibrary(l ports.TemplateLoader) Option {
	return func(s *Server) {
		s.Library = l
	}
}

// WithTemplateStore makes saved templates available next to the library.
// Ids are looked up in the store first.
func WithTemplateStore(store ports.TemplateStore) Option {
	return func(s *Server) {
		s.Store = store
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the session service.
func NewHandler(sessions ports.SessionService, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Library = ports.NewCatalog(server.Store, server.Library)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Post("/", server.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/step", server.StepSession)
			r.Post("/commands", server.ApplyCommand)
			r.Get("/template", server.GetSessionTemplate)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", server.ListTemplates)
		r.Get("/{id}", server.GetTemplate)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSessionRequest is the body of POST /sessions.
// Layout wins over TemplateID; with neither, a blank grid is created.
type CreateSessionRequest struct {
	ID         string           `json:"id"`
	TemplateID string           `json:"template_id,omitempty"`
	Layout     string           `json:"layout,omitempty"`
	Algorithm  domain.Algorithm `json:"algorithm,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "stepgrid-http",
		"version":    strings.TrimSpace(stepgrid.Version),
		"algorithms": domain.Algorithms,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("CreateSession: Invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var tmpl *domain.Template
	switch {
	case body.Layout != "":
		tmpl = &domain.Template{Layout: body.Layout}
	case body.TemplateID != "":
		if s.Library == nil {
			http.Error(w, "No template library configured", http.StatusNotFound)
			return
		}
		loaded, err := s.Library.Load(r.Context(), body.TemplateID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tmpl = loaded
	}
	if body.Algorithm != "" {
		if tmpl == nil {
			tmpl = &domain.Template{}
		}
		tmpl.Algorithm = body.Algorithm
	}

	snap, err := s.Sessions.Create(r.Context(), body.ID, tmpl)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+body.ID)
	s.writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepSession handles POST /sessions/{id}/step?n=N.
func (s *Server) StepSession(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, fmt.Sprintf("Invalid step count %q", raw), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	snap, err := s.Sessions.Step(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// ApplyCommand handles POST /sessions/{id}/commands.
func (s *Server) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	var cmd domain.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.Logger.Warn("ApplyCommand: Invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := s.Sessions.Apply(r.Context(), chi.URLParam(r, "id"), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetSessionTemplate handles GET /sessions/{id}/template.
// It answers text/plain with the bare layout unless the client accepts JSON.
func (s *Server) GetSessionTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.Sessions.Template(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		s.writeJSON(w, http.StatusOK, tmpl)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(tmpl.Layout))
}

// ListTemplates handles GET /templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if s.Library == nil {
		s.writeJSON(w, http.StatusOK, map[string][]string{"templates": {}})
		return
	}
	ids, err := s.Library.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"templates": ids})
}

// GetTemplate handles GET /templates/{id}.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if s.Library == nil {
		http.Error(w, "No template library configured", http.StatusNotFound)
		return
	}
	tmpl, err := s.Library.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tmpl)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// Each message is a domain.SnapshotDiff. ?watch=status,cells,current filters them.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sub, ok := s.Sessions.(Subscriber)
	if !ok {
		http.Error(w, "Streaming not supported by session service", http.StatusNotImplemented)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	diffs, err := sub.Subscribe(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var watchList []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watchList = strings.Split(raw, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case diff, ok := <-diffs:
			if !ok {
				// Deleted session or a client too slow to keep up.
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", sessionID)
				flusher.Flush()
				return
			}
			if !matches(diff, watchList) {
				continue
			}
			payload, err := json.Marshal(diff)
			if err != nil {
				s.Logger.Error("SSE: Diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func matches(diff *domain.SnapshotDiff, watchList []string) bool {
	if len(watchList) == 0 || diff.Resized {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "status":
			if diff.Status != nil {
				return true
			}
		case "cells":
			if len(diff.Cells) > 0 {
				return true
			}
		case "current":
			if diff.Current != nil {
				return true
			}
		}
	}
	return false
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTemplate),
		errors.Is(err, domain.ErrInvalidPlacement),
		errors.Is(err, domain.ErrOutOfBounds),
		errors.Is(err, domain.ErrInvalidWeight),
		errors.Is(err, domain.ErrUnknownAlgorithm),
		errors.Is(err, domain.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
