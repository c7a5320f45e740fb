package core

import (
	"errors"
	"fmt"
)

// File errors.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrParse               = errors.New("parse error")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNoFile              = errors.New("no file provided")
)

// Column errors.
var (
	ErrNoCandidateFound       = errors.New("no candidate value found")
	ErrColumnHasNoValidValues = errors.New("column has no valid values")
	ErrUnknownColumn          = errors.New("column not in file header")
	ErrNoColumnSelected       = errors.New("no column selected")
)

// Submission and session errors.
var (
	ErrEmptyJobIDResponse   = errors.New("job service returned an empty job id")
	ErrEmptyResultsResponse = errors.New("job service returned no results field")
	ErrSubmissionInFlight   = errors.New("a submission is already in flight")
	ErrInvalidState         = errors.New("action not allowed in current session state")
	ErrInvalidMode          = errors.New("invalid mode")
	ErrBatchTooLarge        = errors.New("too many lines in batch")
)

// Job service errors. Use errors.As with *ServerError or *NetworkError for detail.
var (
	ErrServer  = errors.New("job service error")
	ErrNetwork = errors.New("job service unreachable")
)

// Results and export errors.
var (
	ErrResultsFetchFailed = errors.New("results fetch failed")
	ErrStaleResponse      = errors.New("stale results response")
	ErrLocalSetNotFound   = errors.New("local result set not found")
	ErrExportFailed       = errors.New("export failed")
)

// ServerError is a non-2xx response from the job service.
type ServerError struct {
	Status  int
	Message string // the "error" field of the response body, if any
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("job service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("job service returned %d", e.Status)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// NetworkError is a transport failure talking to the job service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// CandidateError reports a column heuristic failure for a mode.
// Column is empty for file-level failures.
type CandidateError struct {
	Err    error
	Mode   Mode
	Column string
}

func (e *CandidateError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%v: column %q has no %s values", e.Err, e.Column, e.Mode.TargetNoun())
	}
	return fmt.Sprintf("%v: no %s values", e.Err, e.Mode.TargetNoun())
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}
