// Package http exposes the control API for a live call session: the
// external reasoning collaborator inspects the active phase's
// transition set and invokes the selected transition through it. It
// also serves health and Prometheus metrics endpoints.
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

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/internal/runtime"
	"github.com/aretw0/coldline/pkg/domain"
)

// Session is the subset of the orchestrator the control API drives.
type Session interface {
	Phase() domain.PhaseID
	Transitions() []domain.Transition
	Snapshot() *domain.CallRecord
	ApplyTransition(ctx context.Context, name domain.TransitionName, params map[string]any) error
	Terminate(ctx context.Context)
}

// Server serves the control API for one live session.
type Server struct {
	session Session
	logger  *slog.Logger
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// TransitionRequest is the body of POST /call/transition.
type TransitionRequest struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// TransitionsResponse lists the active phase and its exposed set.
type TransitionsResponse struct {
	Phase       domain.PhaseID      `json:"phase"`
	Transitions []domain.Transition `json:"transitions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the chi router for a live session. The metrics
// gatherer may be nil, in which case /metrics is not mounted.
func NewHandler(session Session, gatherer prometheus.Gatherer, opts ...ServerOption) http.Handler {
	s := &Server{
		session: session,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/call", func(r chi.Router) {
		r.Get("/", s.getCall)
		r.Get("/transitions", s.getTransitions)
		r.Post("/transition", s.postTransition)
		r.Post("/terminate", s.postTerminate)
	})

	return r
}

func (s *Server) getCall(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) getTransitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TransitionsResponse{
		Phase:       s.session.Phase(),
		Transitions: s.session.Transitions(),
	})
}

func (s *Server) postTransition(w http.ResponseWriter, r *http.Request) {
	var body TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if body.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "transition name is required"})
		return
	}

	err := s.session.ApplyTransition(r.Context(), domain.TransitionName(body.Name), body.Params)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrUnknownTransition):
		s.logger.Warn("rejected unknown transition", "transition", body.Name)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCallEnded), errors.Is(err, runtime.ErrNotLive):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		var perr *domain.ParamError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("transition failed", "transition", body.Name, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (s *Server) postTerminate(w http.ResponseWriter, r *http.Request) {
	s.session.Terminate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
