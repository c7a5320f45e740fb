package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/listcheck/internal/core"
)

type batchRequest struct {
	Mode string `json:"mode" validate:"required,oneof=extract verify"`
	Text string `json:"text" validate:"required"`
}

type batchResponse struct {
	Result core.BatchResult `json:"result"`
	Local  *core.LocalPage  `json:"local,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

type singleRequest struct {
	Value string `json:"value" validate:"required,max=2048"`
}

// handleBatch runs pasted lines one request at a time. A failure after some
// items succeeded still returns the partial result with the error attached.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ws := s.workspace(r)
	res, set, err := ws.RunBatch(r.Context(), core.Mode(req.Mode), req.Text)
	if err != nil && len(res.Items) == 0 {
		s.respondError(w, r, err)
		return
	}

	resp := batchResponse{Result: res}
	if set != nil {
		page := set.Page(1, s.service.Options().LocalPageSize)
		resp.Local = &page
	}
	if err != nil {
		msg := core.MapError(err)
		resp.Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocalPage(w http.ResponseWriter, r *http.Request) {
	set, err := s.workspace(r).LocalSet(chi.URLParam(r, "handle"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			s.respondError(w, r, invalidRequest(err))
			return
		}
	}
	writeJSON(w, http.StatusOK, set.Page(page, s.service.Options().LocalPageSize))
}

// handleLocalExport downloads a local result set as plain email,domain,site
// lines.
func (s *Server) handleLocalExport(w http.ResponseWriter, r *http.Request) {
	set, err := s.workspace(r).LocalSet(chi.URLParam(r, "handle"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+set.FileName()+`"`)
	if err := core.EncodeLocalCSV(w, set.Rows); err != nil {
		s.respondError(w, r, err)
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req singleRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	row, err := s.service.VerifyOne(r.Context(), req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": row, "label": core.LabelFor(row)})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req singleRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rows, err := s.service.ExtractOne(r.Context(), req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": rows})
}
