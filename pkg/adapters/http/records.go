package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/session"
)

// RecordsServer serves the standalone record API: read-only access to
// persisted call records across sessions, for operators and CRM sync.
// Unlike the per-call control API it outlives any one call process.
type RecordsServer struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// SessionsResponse lists known session IDs.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// NewRecordsHandler builds the chi router for the record API. The
// metrics gatherer may be nil, in which case /metrics is not mounted.
func NewRecordsHandler(sessions *session.Manager, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &RecordsServer{sessions: sessions, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Get("/{sessionID}", s.getSession)
		r.Delete("/{sessionID}", s.deleteSession)
	})

	return r
}

func (s *RecordsServer) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: ids})
}

func (s *RecordsServer) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	record, err := s.sessions.Load(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("failed to load session", "session_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (s *RecordsServer) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.logger.Error("failed to delete session", "session_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
