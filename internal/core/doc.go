// Package core provides the ingestion and job orchestration logic for listcheck.
//
// The package holds every decision listcheck makes on its own, independent of
// any UI or transport layer. The verification and extraction algorithms live
// in a remote job service reached through the small interfaces in ports.go;
// web handlers, the CLI and tests all drive the same code.
//
// # Architecture
//
// Input flows leaves-first through these pieces:
//
//   - Preview parser: turns an uploaded .csv or .txt file into a header-keyed
//     sample of its first rows ([ParsePreview]).
//   - Column heuristic: decides which column holds URLs or email addresses
//     using the sample only ([DetectColumn], [ValidateColumn]).
//   - Session: an explicit state machine driven by [Transition], owned by a
//     [Workspace] per client.
//   - Submitter: packages a confirmed session into a bulk job request.
//   - Batch runner: the paste-lines path, one single-item request at a time.
//   - Results engine: fetches job-wide counters and one page of rows, then
//     filters that page locally.
//   - Export: local CSV encoding and server-rendered export streaming.
//
// # Session Lifecycle
//
//	Idle --accept--> ColumnConfirmable --confirm--> Submitting --ok--> Submitted
//	                  ^        |  (selectColumn)        |
//	                  +--------+<------- failure -------+
//
// Cancel returns any state to Idle. A new file cannot be accepted while a
// submission is in flight.
//
// # Error Handling
//
// Errors are sentinel values matched with errors.Is and mapped to
// user-facing messages with [MapError]. Each message has a support code:
//
//   - FILE001-FILE004: file type, size and parse errors
//   - COL001-COL004: column detection and selection errors
//   - JOB001-JOB006: submission errors
//   - NET001-NET004: job service and transport errors
//   - RES001-RES003: result paging errors
//   - EXP001: export errors
//
// Ingestion errors never leave the session: they become [UiEvent] values on
// the workspace queue and the session is held or reset.
package core
