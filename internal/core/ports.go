package core

import (
	"context"
	"io"
	"time"
)

// The interfaces below are the job service boundary. internal/backend
// implements all of them over HTTP; tests use in-memory fakes.

// SingleItemService handles one value per request.
type SingleItemService interface {
	// Verify checks one email address.
	Verify(ctx context.Context, email string) (VerificationRow, error)
	// Extract finds emails on one website. Returned rows have no Site set.
	Extract(ctx context.Context, website string) ([]ExtractedRow, error)
}

// BulkSubmitter sends whole files.
type BulkSubmitter interface {
	// BulkVerify starts a verification job and returns its id.
	BulkVerify(ctx context.Context, file UploadFile, emailCol string, background bool) (string, error)
	// BulkExtract returns extracted rows inline. A nil slice means the
	// response had no results field.
	BulkExtract(ctx context.Context, file UploadFile, websiteCol string) ([]ExtractedRow, error)
}

// ResultsFetcher loads one page of job results.
type ResultsFetcher interface {
	Results(ctx context.Context, jobID string, page, pageSize int) (ResultPage, error)
}

// ExportDownloader opens a server-rendered export. The caller closes the body.
type ExportDownloader interface {
	Download(ctx context.Context, jobID string, exportType ExportType) (io.ReadCloser, error)
}

// StatsFetcher reads service-wide counters.
type StatsFetcher interface {
	Stats(ctx context.Context) (DashboardStats, error)
	Health(ctx context.Context) error
}

// JobService is the whole job service surface.
type JobService interface {
	SingleItemService
	BulkSubmitter
	ResultsFetcher
	ExportDownloader
	StatsFetcher
}

// HistoryEntry is one confirmed submission, listed under "recent lists".
type HistoryEntry struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	Mode        Mode      `json:"mode"`
	Column      string    `json:"column"`
	JobID       string    `json:"jobId,omitempty"`
	LocalHandle string    `json:"localHandle,omitempty"`
	Rows        int       `json:"rows"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// JobHistory stores recent submissions.
type JobHistory interface {
	Record(ctx context.Context, entry HistoryEntry) error
	// Search returns entries whose file name contains query, case-insensitively,
	// newest first. An empty query matches everything.
	Search(ctx context.Context, query string, limit int) ([]HistoryEntry, error)
	// Purge deletes entries submitted before cutoff and returns the count.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
