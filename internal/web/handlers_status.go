package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/history"
	"github.com/JonMunkholm/listcheck/internal/logging"
)

// healthTimeout bounds the backend probe behind /api/health.
const healthTimeout = 5 * time.Second

var errBadLimit = errors.New("limit must be between 1 and 500")

// HealthResponse is the /api/health body.
type HealthResponse struct {
	Status     string              `json:"status"`
	Backend    string              `json:"backend"`
	Workspaces int                 `json:"workspaces"`
	Submits    *core.LimiterStatus `json:"submits,omitempty"`
}

// handleHealth reports 503 when the job service is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Backend: "ok", Workspaces: s.service.WorkspaceCount()}
	if l := s.service.Limiter(); l != nil {
		st := l.Status()
		resp.Submits = &st
	}

	status := http.StatusOK
	if err := s.service.Health(ctx); err != nil {
		logRequestError(r, "backend health check failed", err)
		resp.Status = "degraded"
		resp.Backend = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// handleLists searches recent submissions by file name.
func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := history.DefaultSearchLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.respondError(w, r, invalidRequest(errBadLimit))
			return
		}
		limit = n
	}

	entries, err := s.service.RecentLists(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": entries})
}

func logRequestError(r *http.Request, msg string, err error) {
	logging.WithFields(r.Context(), "path", r.URL.Path).Warn(msg, "error", err)
}
