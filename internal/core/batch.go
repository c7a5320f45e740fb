package core

// batch.go runs the paste-lines path: no file, just free text with one value
// per line. Each candidate line becomes one single-item request. With the
// default of one worker, request i+1 is only issued once request i has
// returned. Item failures are dropped without a trace in the result.

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Line is a candidate value and its 1-based position in the pasted text.
type Line struct {
	Number int    `json:"line"`
	Value  string `json:"value"`
}

// CandidateLines splits text into trimmed non-empty lines and keeps the
// ones that are candidates for the mode, in input order.
func CandidateLines(mode Mode, text string) []Line {
	var out []Line
	for i, raw := range lineBreak.Split(text, -1) {
		v := strings.TrimSpace(raw)
		if v == "" || !IsCandidate(mode, v) {
			continue
		}
		out = append(out, Line{Number: i + 1, Value: v})
	}
	return out
}

// BatchItem is the successful outcome for one source line.
type BatchItem struct {
	Line         int              `json:"line"`
	Source       string           `json:"source"`
	Verification *VerificationRow `json:"verification,omitempty"`
	Extracted    []ExtractedRow   `json:"extracted,omitempty"`
}

// BatchResult holds the successful items in input order.
type BatchResult struct {
	Mode       Mode        `json:"mode"`
	Candidates int         `json:"candidates"`
	Items      []BatchItem `json:"items"`
}

// ExtractedRows flattens extract items into rows, each tagged with its site.
func (r BatchResult) ExtractedRows() []ExtractedRow {
	rows := []ExtractedRow{}
	for _, it := range r.Items {
		rows = append(rows, it.Extracted...)
	}
	return rows
}

// VerificationRows returns verify items in order.
func (r BatchResult) VerificationRows() []VerificationRow {
	rows := []VerificationRow{}
	for _, it := range r.Items {
		if it.Verification != nil {
			rows = append(rows, *it.Verification)
		}
	}
	return rows
}

// BatchRunner issues single-item requests for pasted lines.
type BatchRunner struct {
	items    SingleItemService
	workers  int
	maxLines int
}

// NewBatchRunner creates a runner. workers below 1 means 1 (strictly
// sequential); maxLines below 1 means no cap.
func NewBatchRunner(items SingleItemService, workers, maxLines int) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{items: items, workers: workers, maxLines: maxLines}
}

// Run processes every candidate line of text. It fails with a
// *CandidateError wrapping ErrNoCandidateFound when no line qualifies.
//
// If ctx ends mid-run the items finished so far are returned with ctx.Err().
func (r *BatchRunner) Run(ctx context.Context, mode Mode, text string) (BatchResult, error) {
	if !mode.Valid() {
		return BatchResult{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	lines := CandidateLines(mode, text)
	if len(lines) == 0 {
		return BatchResult{}, &CandidateError{Err: ErrNoCandidateFound, Mode: mode}
	}
	if r.maxLines > 0 && len(lines) > r.maxLines {
		return BatchResult{}, fmt.Errorf("%w: %d lines, limit %d", ErrBatchTooLarge, len(lines), r.maxLines)
	}

	start := time.Now()
	slots := make([]*BatchItem, len(lines))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			item, err := r.runItem(ctx, mode, line)
			if err != nil {
				slog.Debug("batch item skipped", "mode", mode, "line", line.Number, "error", err)
				return nil
			}
			slots[i] = item
			return nil
		})
	}
	g.Wait()

	result := BatchResult{Mode: mode, Candidates: len(lines), Items: []BatchItem{}}
	for _, item := range slots {
		if item != nil {
			result.Items = append(result.Items, *item)
		}
	}

	slog.Info("batch finished",
		"mode", mode,
		"candidates", len(lines),
		"succeeded", len(result.Items),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, ctx.Err()
}

func (r *BatchRunner) runItem(ctx context.Context, mode Mode, line Line) (*BatchItem, error) {
	item := &BatchItem{Line: line.Number, Source: line.Value}

	switch mode {
	case ModeVerify:
		row, err := r.items.Verify(ctx, line.Value)
		if err != nil {
			return nil, err
		}
		item.Verification = &row

	case ModeExtract:
		rows, err := r.items.Extract(ctx, line.Value)
		if err != nil {
			return nil, err
		}
		item.Extracted = make([]ExtractedRow, len(rows))
		for i, row := range rows {
			row.Site = line.Value
			item.Extracted[i] = row
		}
	}

	return item, nil
}
