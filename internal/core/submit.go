package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SubmitRequest is a confirmed session packaged for the job service.
type SubmitRequest struct {
	Mode       Mode
	File       UploadFile
	Column     string
	Background bool
}

// Submission is the outcome of a successful submit. Verify jobs run on the
// job service and are identified by JobID. Extract jobs answer inline, so
// their rows are kept locally under LocalHandle.
type Submission struct {
	Mode        Mode           `json:"mode"`
	JobID       string         `json:"jobId,omitempty"`
	Extracted   []ExtractedRow `json:"-"`
	LocalHandle string         `json:"localHandle,omitempty"`
}

// Submitter sends confirmed sessions to the job service.
type Submitter struct {
	backend BulkSubmitter
	limiter *SubmitLimiter
}

// NewSubmitter creates a Submitter. limiter may be nil.
func NewSubmitter(backend BulkSubmitter, limiter *SubmitLimiter) *Submitter {
	return &Submitter{backend: backend, limiter: limiter}
}

// Submit sends req and validates the answer. A 2xx answer without a job id
// is still a failure.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	if req.File.Size() == 0 && req.File.Name == "" {
		return Submission{}, ErrNoFile
	}
	if req.Column == "" {
		return Submission{}, ErrNoColumnSelected
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return Submission{}, err
		}
		defer s.limiter.Release()
	}

	start := time.Now()
	logger := slog.With("mode", req.Mode, "file", req.File.Name, "column", req.Column)

	switch req.Mode {
	case ModeVerify:
		jobID, err := s.backend.BulkVerify(ctx, req.File, req.Column, req.Background)
		if err != nil {
			return Submission{}, fmt.Errorf("bulk verify: %w", err)
		}
		if strings.TrimSpace(jobID) == "" {
			return Submission{}, ErrEmptyJobIDResponse
		}
		logger.Info("bulk verify submitted", "job_id", jobID, "duration_ms", time.Since(start).Milliseconds())
		return Submission{Mode: ModeVerify, JobID: jobID}, nil

	case ModeExtract:
		rows, err := s.backend.BulkExtract(ctx, req.File, req.Column)
		if err != nil {
			return Submission{}, fmt.Errorf("bulk extract: %w", err)
		}
		if rows == nil {
			return Submission{}, ErrEmptyResultsResponse
		}
		logger.Info("bulk extract completed", "emails", len(rows), "duration_ms", time.Since(start).Milliseconds())
		return Submission{Mode: ModeExtract, Extracted: rows}, nil

	default:
		return Submission{}, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
}
