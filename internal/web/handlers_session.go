package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the other
// form fields and boundaries.
const multipartOverhead = 1 << 20

// sessionResponse is returned by every session endpoint. Ingestion failures
// show up in Events, not as error statuses.
type sessionResponse struct {
	Session core.SessionSnapshot `json:"session"`
	Events  []core.UiEvent       `json:"events"`
}

type selectColumnRequest struct {
	Column string `json:"column" validate:"required,max=512"`
}

func (s *Server) respondSession(w http.ResponseWriter, ws *core.Workspace, snap core.SessionSnapshot) {
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Events: ws.Events()})
}

// handleSession returns the session without draining events.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.workspace(r).Snapshot(), Events: []core.UiEvent{}})
}

// handleAccept reads a multipart upload {file, mode} into the session.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, core.ErrFileTooLarge)
			return
		}
		s.respondError(w, r, invalidRequest(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, invalidRequest(err))
		return
	}

	ws := s.workspace(r)
	snap := ws.Accept(core.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, core.Mode(r.FormValue("mode")))
	s.respondSession(w, ws, snap)
}

func (s *Server) handleSelectColumn(w http.ResponseWriter, r *http.Request) {
	var req selectColumnRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ws := s.workspace(r)
	s.respondSession(w, ws, ws.SelectColumn(req.Column))
}

// handleConfirm runs the submission and answers once the job service has.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	s.respondSession(w, ws, ws.Confirm(r.Context()))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	s.respondSession(w, ws, ws.Cancel())
}

// handleEvents drains the workspace's UI events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.workspace(r).Events()
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.EventToasts(events).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalidRequest(err)
	}
	if err := s.validate.Struct(v); err != nil {
		return invalidRequest(err)
	}
	return nil
}
