package core

// # Error Codes Reference
//
// This file maps errors to user-facing messages with codes for support
// reference. Users can quote the code when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unsupported type: the file is not .csv or .txt
//	          Action: Please upload a CSV or TXT file
//
//	FILE002 - Parse error: the file could not be read as delimited text
//	          Action: Check the header row and quoting, then try again
//
//	FILE003 - File too large: the file exceeds the upload limit
//	          Action: Split the list into smaller files
//
//	FILE004 - No file: nothing was uploaded
//	          Action: Choose a file to upload
//
// # Column Errors (COL001-COL099)
//
//	COL001 - No candidates: no cell in the sample looks like a URL or email
//	         Action: Fix the source data so one column holds the values
//
//	COL002 - Column has no valid values: the chosen column has no candidates
//	         Action: Pick a different column
//
//	COL003 - Unknown column: the column is not in the file header
//
//	COL004 - No column selected
//
// # Submission Errors (JOB001-JOB099)
//
//	JOB001 - Empty job id: the job service accepted the file but returned no id
//	JOB002 - Empty results: the job service returned no results field
//	JOB003 - Submission in flight: a file is already being submitted
//	JOB004 - Invalid state: the action does not apply right now
//	JOB005 - System busy: too many submissions in progress
//	JOB006 - Batch too large: too many lines were pasted
//
// # Job Service Errors (NET001-NET099)
//
//	NET001 - Server error: the job service answered with a non-2xx status
//	NET002 - Network error: the job service could not be reached
//	NET003 - Request timed out (pattern "context deadline exceeded")
//	NET004 - Request cancelled (pattern "context canceled")
//
// # Results Errors (RES001-RES099)
//
//	RES001 - Results fetch failed: the job could not be loaded
//	RES002 - Local result set not found or expired
//	RES003 - Invalid mode
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the technical error.
//
// # Matching
//
// Known errors are matched with errors.Is against the catalogue in order, so
// wrapping errors (results, export) are listed before the job service errors
// they wrap. Errors from outside the package fall back to case-insensitive
// substring patterns.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorEntry struct {
	target error
	msg    UserMessage
}

var errorCatalogue = []errorEntry{
	// Wrapping errors first.
	{ErrResultsFetchFailed, UserMessage{"Could not load results for this job", "Check the job id or try again later", "RES001"}},
	{ErrStaleResponse, UserMessage{"A newer page was requested", "Showing the most recent page instead", "RES004"}},
	{ErrLocalSetNotFound, UserMessage{"These results are no longer available", "Run the extraction again", "RES002"}},
	{ErrExportFailed, UserMessage{"Export failed", "Please try again", "EXP001"}},

	// File
	{ErrUnsupportedFileType, UserMessage{"Unsupported file type", "Please upload a CSV or TXT file", "FILE001"}},
	{ErrParse, UserMessage{"Error parsing the file", "Check the header row and quoting, then try again", "FILE002"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the list into smaller files", "FILE003"}},
	{ErrNoFile, UserMessage{"No file was selected", "Choose a CSV or TXT file to upload", "FILE004"}},

	// Column
	{ErrNoCandidateFound, UserMessage{"No usable values found", "Fix the source data so one column holds the values", "COL001"}},
	{ErrColumnHasNoValidValues, UserMessage{"Selected column has no valid values", "Pick a different column", "COL002"}},
	{ErrUnknownColumn, UserMessage{"Column not found in file", "Pick one of the columns from the header", "COL003"}},
	{ErrNoColumnSelected, UserMessage{"No column selected", "Pick the column to process", "COL004"}},

	// Submission
	{ErrEmptyJobIDResponse, UserMessage{"The job service did not return a job id", "Please try submitting again", "JOB001"}},
	{ErrEmptyResultsResponse, UserMessage{"The job service returned no results", "Please try submitting again", "JOB002"}},
	{ErrSubmissionInFlight, UserMessage{"A file is already being submitted", "Wait for the current submission to finish", "JOB003"}},
	{ErrInvalidState, UserMessage{"That action is not available right now", "Upload a file to start", "JOB004"}},
	{ErrTooManySubmissions, UserMessage{"System is busy processing other submissions", "Please wait a moment and try again", "JOB005"}},
	{ErrBatchTooLarge, UserMessage{"Too many lines to process at once", "Paste fewer lines or upload a file", "JOB006"}},
	{ErrInvalidMode, UserMessage{"Unknown processing mode", "Use extract or verify", "RES003"}},

	// Job service
	{ErrServer, UserMessage{"The job service rejected the request", "Please try again", "NET001"}},
	{ErrNetwork, UserMessage{"Could not reach the job service", "Check your connection and try again", "NET002"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that do not wrap a sentinel.
// Patterns are matched using strings.Contains on the lowercased error text.
var errorPatterns = []errorPattern{
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "NET003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "NET004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Could not reach the job service",
			Action:  "Check your connection and try again",
			Code:    "NET002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Column heuristic errors name the mode's target values, and job service
// errors carry the service's own message when it sent one.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var msg UserMessage
	found := false
	for _, e := range errorCatalogue {
		if errors.Is(err, e.target) {
			msg, found = e.msg, true
			break
		}
	}

	if !found {
		errStr := strings.ToLower(err.Error())
		for _, ep := range errorPatterns {
			if strings.Contains(errStr, ep.pattern) {
				return ep.msg
			}
		}
		return defaultMessage
	}

	var ce *CandidateError
	if errors.As(err, &ce) && ce.Mode.Valid() {
		switch {
		case errors.Is(ce.Err, ErrNoCandidateFound):
			msg.Message = fmt.Sprintf("You must provide at least one valid %s", ce.Mode.TargetNoun())
		case errors.Is(ce.Err, ErrColumnHasNoValidValues):
			msg.Message = fmt.Sprintf("Column %q has no valid %s values", ce.Column, ce.Mode.TargetNoun())
		}
	}

	var se *ServerError
	if msg.Code == "NET001" && errors.As(err, &se) && se.Message != "" {
		msg.Message = "Job service error: " + se.Message
	}

	return msg
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
