package web

// errors.go turns errors into responses. The technical error is logged with
// the request id; the client gets the core.MapError message as JSON, or as
// an HTML fragment for HTMX requests.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/logging"
	"github.com/JonMunkholm/listcheck/internal/web/templates"
)

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errInvalidRequest marks malformed request bodies and parameters.
var errInvalidRequest = errors.New("invalid request")

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, core.ErrParse),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrNoColumnSelected),
		errors.Is(err, core.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileTooLarge), errors.Is(err, core.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoCandidateFound), errors.Is(err, core.ErrColumnHasNoValidValues):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrLocalSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStaleResponse), errors.Is(err, core.ErrSubmissionInFlight), errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManySubmissions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrResultsFetchFailed),
		errors.Is(err, core.ErrExportFailed),
		errors.Is(err, core.ErrServer),
		errors.Is(err, core.ErrNetwork),
		errors.Is(err, core.ErrEmptyJobIDResponse),
		errors.Is(err, core.ErrEmptyResultsResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := userMessage(err)

	logger := logging.WithFields(r.Context(), "path", r.URL.Path, "method", r.Method)
	log := logger.Warn
	if status >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error", "status", status, "error", err.Error(), "code", userMsg.Code)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
		return
	}
	respondErrorJSON(w, userMsg, status)
}

// userMessage is core.MapError plus request validation messages.
func userMessage(err error) core.UserMessage {
	if errors.Is(err, errInvalidRequest) {
		return core.UserMessage{
			Message: "Invalid request: " + strings.TrimPrefix(err.Error(), errInvalidRequest.Error()+": "),
			Action:  "Check the request and try again",
			Code:    "REQ001",
		}
	}
	return core.MapError(err)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// invalidRequest wraps a decode or validation failure. Only the first
// failing field is reported.
func invalidRequest(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Errorf("%w: %s failed %s", errInvalidRequest, strings.ToLower(ve[0].Field()), ve[0].Tag())
	}
	return fmt.Errorf("%w: %v", errInvalidRequest, err)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
