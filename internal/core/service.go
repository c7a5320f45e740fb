package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryTimeout bounds a single history write.
var HistoryTimeout = 5 * time.Second

// Options tune a Service. Zero values fall back to package defaults.
type Options struct {
	PreviewRows   int
	MaxFileSize   int64
	Background    bool // forwarded to bulk verify
	PageSize      int
	LocalPageSize int
	BatchWorkers  int
	BatchMaxLines int
	WorkspaceTTL  time.Duration
}

// Service is the entry point shared by the web server and the CLI. It owns
// the job service client, the submission limiter, job history and the
// per-client workspaces.
type Service struct {
	backend   JobService
	history   JobHistory
	limiter   *SubmitLimiter
	opts      Options
	submitter *Submitter
	batch     *BatchRunner
	exporter  *Exporter

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewService creates a Service. history and limiter may be nil.
func NewService(backend JobService, history JobHistory, limiter *SubmitLimiter, opts Options) *Service {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.LocalPageSize <= 0 {
		opts.LocalPageSize = DefaultPageSize
	}
	if opts.WorkspaceTTL <= 0 {
		opts.WorkspaceTTL = 2 * time.Hour
	}

	return &Service{
		backend:    backend,
		history:    history,
		limiter:    limiter,
		opts:       opts,
		submitter:  NewSubmitter(backend, limiter),
		batch:      NewBatchRunner(backend, opts.BatchWorkers, opts.BatchMaxLines),
		exporter:   NewExporter(backend),
		workspaces: make(map[string]*Workspace),
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Limiter returns the submission limiter, or nil.
func (s *Service) Limiter() *SubmitLimiter {
	return s.limiter
}

// Workspace returns the workspace for id, creating it if needed. An empty
// id creates a workspace with a fresh id.
func (s *Service) Workspace(id string) *Workspace {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.RLock()
	ws, ok := s.workspaces[id]
	s.mu.RUnlock()
	if ok {
		return ws
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.workspaces[id]; ok {
		return ws
	}
	ws = newWorkspace(id, s)
	s.workspaces[id] = ws
	slog.Debug("workspace created", "workspace_id", id)
	return ws
}

// WorkspaceCount returns the number of live workspaces.
func (s *Service) WorkspaceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// SweepWorkspaces drops workspaces idle for longer than the configured TTL.
func (s *Service) SweepWorkspaces(now time.Time) int {
	cutoff := now.Add(-s.opts.WorkspaceTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, ws := range s.workspaces {
		if ws.idleSince(cutoff) {
			delete(s.workspaces, id)
			dropped++
		}
	}
	return dropped
}

// VerifyOne checks a single email address.
func (s *Service) VerifyOne(ctx context.Context, email string) (VerificationRow, error) {
	if !IsCandidate(ModeVerify, email) {
		return VerificationRow{}, &CandidateError{Err: ErrNoCandidateFound, Mode: ModeVerify}
	}
	row, err := s.backend.Verify(ctx, strings.TrimSpace(email))
	if err != nil {
		return VerificationRow{}, fmt.Errorf("verify: %w", err)
	}
	return row, nil
}

// ExtractOne finds emails on a single website. Rows are tagged with the site.
func (s *Service) ExtractOne(ctx context.Context, website string) ([]ExtractedRow, error) {
	if !IsCandidate(ModeExtract, website) {
		return nil, &CandidateError{Err: ErrNoCandidateFound, Mode: ModeExtract}
	}
	site := strings.TrimSpace(website)
	rows, err := s.backend.Extract(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	out := make([]ExtractedRow, len(rows))
	for i, r := range rows {
		r.Site = site
		out[i] = r
	}
	return out, nil
}

// RunBatch runs pasted lines without a workspace.
func (s *Service) RunBatch(ctx context.Context, mode Mode, text string) (BatchResult, error) {
	return s.batch.Run(ctx, mode, text)
}

// Results loads one filtered page without a workspace.
func (s *Service) Results(ctx context.Context, jobID string, page int, f Filter) (ResultsView, error) {
	return NewResultsEngine(s.backend, s.opts.PageSize).LoadView(ctx, jobID, page, f)
}

// OpenExport starts a server-rendered export. The caller closes the body.
func (s *Service) OpenExport(ctx context.Context, jobID string, t ExportType) (io.ReadCloser, error) {
	return s.exporter.Open(ctx, jobID, t)
}

// Export copies a server-rendered export to w.
func (s *Service) Export(ctx context.Context, jobID string, t ExportType, w io.Writer) (int64, error) {
	return s.exporter.Export(ctx, jobID, t, w)
}

// Stats returns the job service's dashboard counters.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	return s.backend.Stats(ctx)
}

// Health checks the job service.
func (s *Service) Health(ctx context.Context) error {
	return s.backend.Health(ctx)
}

// RecentLists searches job history by file name.
func (s *Service) RecentLists(ctx context.Context, query string, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return []HistoryEntry{}, nil
	}
	return s.history.Search(ctx, query, limit)
}

// recordSubmission writes a finished submission to history. Failures are
// logged and do not affect the session.
func (s *Service) recordSubmission(ctx context.Context, c Completed, data []byte) {
	if s.history == nil {
		return
	}

	entry := HistoryEntry{
		ID:          uuid.NewString(),
		FileName:    c.FileName,
		FileSize:    c.FileSize,
		Mode:        c.Submission.Mode,
		Column:      c.Column,
		JobID:       c.Submission.JobID,
		LocalHandle: c.Submission.LocalHandle,
		Rows:        countDataRows(data),
		SubmittedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HistoryTimeout)
	defer cancel()

	if err := s.history.Record(ctx, entry); err != nil {
		slog.Warn("failed to record submission", "file", c.FileName, "error", err)
	}
}

// countDataRows estimates the data rows of a file: non-blank lines minus
// the header. Quoted multi-line cells make it an overcount.
func countDataRows(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	if n > 0 {
		n--
	}
	return n
}
