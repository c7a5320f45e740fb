package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeJobService is an in-memory JobService. Unset funcs succeed with
// empty answers. Every call is recorded as "op:arg".
type fakeJobService struct {
	mu    sync.Mutex
	calls []string

	verifyFn      func(ctx context.Context, email string) (VerificationRow, error)
	extractFn     func(ctx context.Context, website string) ([]ExtractedRow, error)
	bulkVerifyFn  func(ctx context.Context, file UploadFile, col string, background bool) (string, error)
	bulkExtractFn func(ctx context.Context, file UploadFile, col string) ([]ExtractedRow, error)
	resultsFn     func(ctx context.Context, jobID string, page, pageSize int) (ResultPage, error)
	downloadFn    func(ctx context.Context, jobID string, t ExportType) (io.ReadCloser, error)
	stats         DashboardStats
	healthErr     error
}

func (f *fakeJobService) record(op, arg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+arg)
}

func (f *fakeJobService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeJobService) Verify(ctx context.Context, email string) (VerificationRow, error) {
	f.record("verify", email)
	if f.verifyFn != nil {
		return f.verifyFn(ctx, email)
	}
	return VerificationRow{Email: email, Status: StatusValid}, nil
}

func (f *fakeJobService) Extract(ctx context.Context, website string) ([]ExtractedRow, error) {
	f.record("extract", website)
	if f.extractFn != nil {
		return f.extractFn(ctx, website)
	}
	return []ExtractedRow{}, nil
}

func (f *fakeJobService) BulkVerify(ctx context.Context, file UploadFile, col string, background bool) (string, error) {
	f.record("bulk-verify", col)
	if f.bulkVerifyFn != nil {
		return f.bulkVerifyFn(ctx, file, col, background)
	}
	return "job-1", nil
}

func (f *fakeJobService) BulkExtract(ctx context.Context, file UploadFile, col string) ([]ExtractedRow, error) {
	f.record("bulk-extract", col)
	if f.bulkExtractFn != nil {
		return f.bulkExtractFn(ctx, file, col)
	}
	return []ExtractedRow{}, nil
}

func (f *fakeJobService) Results(ctx context.Context, jobID string, page, pageSize int) (ResultPage, error) {
	f.record("results", jobID)
	if f.resultsFn != nil {
		return f.resultsFn(ctx, jobID, page, pageSize)
	}
	return ResultPage{JobID: jobID, Page: page, PageSize: pageSize, Rows: []RowResult{}}, nil
}

func (f *fakeJobService) Download(ctx context.Context, jobID string, t ExportType) (io.ReadCloser, error) {
	f.record("download", jobID)
	if f.downloadFn != nil {
		return f.downloadFn(ctx, jobID, t)
	}
	return io.NopCloser(strings.NewReader("email,status\n")), nil
}

func (f *fakeJobService) Stats(ctx context.Context) (DashboardStats, error) {
	return f.stats, nil
}

func (f *fakeJobService) Health(ctx context.Context) error {
	return f.healthErr
}

// fakeHistory is an in-memory JobHistory.
type fakeHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	err     error
}

func (h *fakeHistory) Record(ctx context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, e)
	return nil
}

func (h *fakeHistory) Search(ctx context.Context, query string, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []HistoryEntry
	for _, e := range h.entries {
		if strings.Contains(strings.ToLower(e.FileName), strings.ToLower(query)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *fakeHistory) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.entries[:0]
	var n int64
	for _, e := range h.entries {
		if e.SubmittedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	return n, nil
}

var errItemFailed = errors.New("item failed")

func csvFile(name, body string) UploadFile {
	return UploadFile{Name: name, ContentType: "text/csv", Data: []byte(body)}
}
