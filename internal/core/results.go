package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DefaultPageSize is the result page size requested from the job service.
const DefaultPageSize = 20

// StatusAny disables the status filter.
const StatusAny = "any"

// Filter narrows the rows of the loaded page. It never reaches rows on
// other pages.
type Filter struct {
	Query  string `json:"q"`
	Status string `json:"status"`
}

// Active reports whether the filter removes anything.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Query) != "" || (f.Status != "" && f.Status != StatusAny)
}

// FilterRows keeps rows whose email contains Query (case-insensitive) and,
// unless Status is empty or "any", whose status equals Status. Extracted
// rows have no status and are dropped by any status filter.
func FilterRows(rows []RowResult, f Filter) []RowResult {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	status := strings.TrimSpace(f.Status)
	if status == StatusAny {
		status = ""
	}

	out := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		if q != "" && !strings.Contains(strings.ToLower(row.RowEmail()), q) {
			continue
		}
		if status != "" {
			v, ok := row.(VerificationRow)
			if !ok || string(v.Status) != status {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

// TotalPages returns ceil(total/pageSize), or 0 for an empty job.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ExpectedRows returns how many rows page should hold for a job of total rows.
func ExpectedRows(total, pageSize, page int) int {
	if page < 1 || pageSize <= 0 {
		return 0
	}
	remaining := total - pageSize*(page-1)
	switch {
	case remaining <= 0:
		return 0
	case remaining < pageSize:
		return remaining
	default:
		return pageSize
	}
}

// ResultsView is the loaded page with the local filter applied.
type ResultsView struct {
	Page       ResultPage  `json:"page"`
	TotalPages int         `json:"totalPages"`
	Filter     Filter      `json:"filter"`
	Rows       []RowResult `json:"rows"`
}

// ResultsEngine holds the page currently shown for one job.
//
// Every Load takes a new sequence token. When loads overlap, only the
// newest one may update the engine; older answers fail with
// ErrStaleResponse.
type ResultsEngine struct {
	fetcher  ResultsFetcher
	pageSize int

	mu      sync.Mutex
	seq     uint64
	jobID   string
	current *ResultPage
	filter  Filter
}

// NewResultsEngine creates an engine. pageSize <= 0 uses DefaultPageSize.
func NewResultsEngine(fetcher ResultsFetcher, pageSize int) *ResultsEngine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ResultsEngine{fetcher: fetcher, pageSize: pageSize}
}

// Load fetches one page. A page below 1 loads page 1. Switching to a
// different job clears the current page and the filter.
func (e *ResultsEngine) Load(ctx context.Context, jobID string, page int) (ResultPage, error) {
	if page < 1 {
		page = 1
	}

	e.mu.Lock()
	e.seq++
	token := e.seq
	if jobID != e.jobID {
		e.jobID = jobID
		e.current = nil
		e.filter = Filter{}
	}
	e.mu.Unlock()

	p, err := e.fetcher.Results(ctx, jobID, page, e.pageSize)

	e.mu.Lock()
	defer e.mu.Unlock()

	if token != e.seq {
		return ResultPage{}, ErrStaleResponse
	}
	if err != nil {
		return ResultPage{}, fmt.Errorf("%w: job %s page %d: %w", ErrResultsFetchFailed, jobID, page, err)
	}

	if p.PageSize <= 0 {
		p.PageSize = e.pageSize
	}
	if p.Page <= 0 {
		p.Page = page
	}
	if want := ExpectedRows(p.Total, p.PageSize, p.Page); len(p.Rows) != want {
		slog.Warn("result page row count disagrees with job total",
			"job_id", jobID, "page", p.Page, "total", p.Total, "rows", len(p.Rows), "want", want)
	}

	e.current = &p
	return p, nil
}

// SetFilter replaces the local filter.
func (e *ResultsEngine) SetFilter(f Filter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = f
}

// View returns the loaded page filtered locally. ok is false before the
// first successful load.
func (e *ResultsEngine) View() (ResultsView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ResultsView{}, false
	}
	return ResultsView{
		Page:       *e.current,
		TotalPages: e.current.TotalPages(),
		Filter:     e.filter,
		Rows:       FilterRows(e.current.Rows, e.filter),
	}, true
}

// LoadView loads a page, makes f the current filter and returns the view of
// that page.
func (e *ResultsEngine) LoadView(ctx context.Context, jobID string, page int, f Filter) (ResultsView, error) {
	p, err := e.Load(ctx, jobID, page)
	if err != nil {
		return ResultsView{}, err
	}
	e.SetFilter(f)
	return ResultsView{
		Page:       p,
		TotalPages: p.TotalPages(),
		Filter:     f,
		Rows:       FilterRows(p.Rows, f),
	}, nil
}
