package core

import (
	"fmt"
	"log/slog"
)

// SessionState is the stage of an ingestion session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateFileLoaded
	StateColumnConfirmable
	StateSubmitting
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileLoaded:
		return "file_loaded"
	case StateColumnConfirmable:
		return "column_confirmable"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is one client's file to column to submit flow. Values are treated
// as immutable; Transition returns a new Session.
type Session struct {
	State    SessionState
	Mode     Mode
	File     *UploadFile
	Preview  Preview
	Selected string

	// Submission is set once the session reaches StateSubmitted.
	Submission *Submission

	// Attempt increases on every confirm. Submission outcomes carry the
	// attempt they belong to so late answers for an abandoned attempt are
	// dropped.
	Attempt uint64
}

// Event drives a session transition.
type Event interface {
	sessionEvent()
}

// Accept offers a new file.
type Accept struct {
	File        UploadFile
	Mode        Mode
	PreviewRows int   // 0 means DefaultPreviewRows
	MaxFileSize int64 // 0 means unlimited
}

// SelectColumn changes the target column.
type SelectColumn struct {
	Name string
}

// Confirm submits the session with the selected column.
type Confirm struct {
	Background bool
}

// SubmitSucceeded reports the job service accepted a submission.
type SubmitSucceeded struct {
	Attempt    uint64
	Submission Submission
}

// SubmitFailed reports a submission error.
type SubmitFailed struct {
	Attempt uint64
	Err     error
}

// Cancel resets the session.
type Cancel struct{}

func (Accept) sessionEvent()          {}
func (SelectColumn) sessionEvent()    {}
func (Confirm) sessionEvent()         {}
func (SubmitSucceeded) sessionEvent() {}
func (SubmitFailed) sessionEvent()    {}
func (Cancel) sessionEvent()          {}

// Effect is work a transition asks its owner to perform.
type Effect interface {
	sessionEffect()
}

// Notify asks the owner to surface a UiEvent.
type Notify struct {
	Event UiEvent
}

// StartSubmit asks the owner to run the submission and feed the outcome
// back as SubmitSucceeded or SubmitFailed with the same Attempt.
type StartSubmit struct {
	Attempt uint64
	Request SubmitRequest
}

// AbortSubmit asks the owner to cancel an in-flight submission.
type AbortSubmit struct{}

// Completed reports a finished submission for the owner to record.
type Completed struct {
	Submission Submission
	FileName   string
	FileSize   int64
	Column     string
}

func (Notify) sessionEffect()      {}
func (StartSubmit) sessionEffect() {}
func (AbortSubmit) sessionEffect() {}
func (Completed) sessionEffect()   {}

// Transition applies ev to s. It performs no I/O: parsing happens in memory
// and network work is returned as effects.
func Transition(s Session, ev Event) (Session, []Effect) {
	switch e := ev.(type) {
	case Accept:
		return accept(s, e)
	case SelectColumn:
		return selectColumn(s, e)
	case Confirm:
		return confirm(s, e)
	case SubmitSucceeded:
		return submitSucceeded(s, e)
	case SubmitFailed:
		return submitFailed(s, e)
	case Cancel:
		return cancel(s)
	default:
		slog.Warn("unknown session event", "event", fmt.Sprintf("%T", ev))
		return s, nil
	}
}

func fail(s Session, err error) (Session, []Effect) {
	return s, []Effect{Notify{Event: ErrorEvent(err)}}
}

// reset returns an empty session that keeps the attempt counter.
func reset(s Session) Session {
	return Session{State: StateIdle, Attempt: s.Attempt}
}

func accept(s Session, e Accept) (Session, []Effect) {
	if s.State == StateSubmitting {
		return fail(s, ErrSubmissionInFlight)
	}

	next := reset(s)
	if !e.Mode.Valid() {
		return fail(next, fmt.Errorf("%w: %q", ErrInvalidMode, e.Mode))
	}
	if e.MaxFileSize > 0 && e.File.Size() > e.MaxFileSize {
		return fail(next, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, e.File.Size(), e.MaxFileSize))
	}

	preview, err := PreviewFile(e.File, e.PreviewRows)
	if err != nil {
		return fail(next, err)
	}

	file := e.File
	loaded := Session{
		State:   StateFileLoaded,
		Mode:    e.Mode,
		File:    &file,
		Preview: preview,
		Attempt: s.Attempt,
	}

	column, err := DetectColumn(e.Mode, preview)
	if err != nil {
		return fail(next, err)
	}

	loaded.State = StateColumnConfirmable
	loaded.Selected = column
	return loaded, nil
}

func selectColumn(s Session, e SelectColumn) (Session, []Effect) {
	if s.State != StateColumnConfirmable {
		return fail(s, ErrInvalidState)
	}
	if err := ValidateColumn(s.Mode, s.Preview, e.Name); err != nil {
		return fail(s, err)
	}
	s.Selected = e.Name
	return s, nil
}

func confirm(s Session, e Confirm) (Session, []Effect) {
	if s.State != StateColumnConfirmable {
		return fail(s, ErrInvalidState)
	}
	if s.File == nil {
		return fail(s, ErrNoFile)
	}
	if s.Selected == "" {
		return fail(s, ErrNoColumnSelected)
	}

	s.State = StateSubmitting
	s.Attempt++
	return s, []Effect{StartSubmit{
		Attempt: s.Attempt,
		Request: SubmitRequest{
			Mode:       s.Mode,
			File:       *s.File,
			Column:     s.Selected,
			Background: e.Background,
		},
	}}
}

func submitSucceeded(s Session, e SubmitSucceeded) (Session, []Effect) {
	if s.State != StateSubmitting || e.Attempt != s.Attempt {
		return s, nil
	}

	sub := e.Submission
	next := Session{
		State:      StateSubmitted,
		Mode:       s.Mode,
		File:       s.File,
		Preview:    s.Preview,
		Selected:   s.Selected,
		Submission: &sub,
		Attempt:    s.Attempt,
	}

	msg := "Job submitted"
	if sub.Mode == ModeExtract {
		msg = fmt.Sprintf("Extracted %d emails", len(sub.Extracted))
	}
	return next, []Effect{
		Notify{Event: SuccessEvent(msg)},
		Completed{Submission: sub, FileName: s.File.Name, FileSize: s.File.Size(), Column: s.Selected},
	}
}

func submitFailed(s Session, e SubmitFailed) (Session, []Effect) {
	if s.State != StateSubmitting || e.Attempt != s.Attempt {
		return s, nil
	}
	s.State = StateColumnConfirmable
	return fail(s, e.Err)
}

func cancel(s Session) (Session, []Effect) {
	if s.State == StateSubmitting {
		return reset(s), []Effect{AbortSubmit{}}
	}
	return reset(s), nil
}
