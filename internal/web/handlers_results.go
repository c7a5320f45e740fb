package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/web/templates"
)

// resultsQuery is the page and local filter of a results request.
type resultsQuery struct {
	Page   int    `validate:"gte=1"`
	Query  string `validate:"max=256"`
	Status string `validate:"omitempty,oneof=any valid invalid accept_all"`
}

func (s *Server) parseResultsQuery(r *http.Request) (int, core.Filter, error) {
	q := r.URL.Query()
	rq := resultsQuery{Page: 1, Query: q.Get("q"), Status: q.Get("status")}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return 0, core.Filter{}, invalidRequest(fmt.Errorf("page: %w", err))
		}
		rq.Page = page
	}
	if err := s.validate.Struct(rq); err != nil {
		return 0, core.Filter{}, invalidRequest(err)
	}
	return rq.Page, core.Filter{Query: rq.Query, Status: rq.Status}, nil
}

// handleResults returns one page of a job with the local filter applied.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	page, filter, err := s.parseResultsQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.workspace(r).Results(r.Context(), chi.URLParam(r, "jobID"), page, filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleResultsPage renders the results page as HTML.
func (s *Server) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	page, filter, err := s.parseResultsQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.workspace(r).Results(r.Context(), jobID, page, filter)
	if errors.Is(err, core.ErrResultsFetchFailed) {
		status := statusFor(err)
		var se *core.ServerError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.NotFound(jobID).Render(r.Context(), w)
		return
	}
	if err != nil {
		msg := core.MapError(err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusFor(err))
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ResultsTable(view).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleExport streams the job service's CSV export unchanged.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	t, err := core.ParseExportType(r.URL.Query().Get("type"))
	if err != nil {
		s.respondError(w, r, invalidRequest(err))
		return
	}

	body, err := s.service.OpenExport(r.Context(), jobID, t)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFileName(t, jobID)+`"`)
	if _, err := io.Copy(w, body); err != nil {
		// Headers are out; all that is left is the log line.
		logRequestError(r, "export copy failed", err)
	}
}
