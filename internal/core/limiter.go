package core

// limiter.go bounds the number of bulk submissions in flight across all
// workspaces. Bulk files can be large and the job service parses them
// synchronously, so the server holds at most a few at once.
//
// A submission that cannot get a slot within maxWait fails with
// ErrTooManySubmissions. WaitForDrain lets shutdown wait for in-flight
// submissions to finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManySubmissions is returned when every slot stays busy for maxWait.
var ErrTooManySubmissions = errors.New("too many submissions in progress")

const (
	DefaultMaxConcurrentSubmissions = 5
	DefaultSubmitWaitTime           = 30 * time.Second
)

// SubmitLimiter is a counting semaphore for bulk submissions.
type SubmitLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewSubmitLimiter allows maxConcurrent submissions at once. Non-positive
// arguments fall back to the defaults.
func NewSubmitLimiter(maxConcurrent int, maxWait time.Duration) *SubmitLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultSubmitWaitTime
	}
	return &SubmitLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release it.
func (l *SubmitLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManySubmissions
	}
}

// Release returns a slot taken by Acquire.
func (l *SubmitLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of submissions holding a slot.
func (l *SubmitLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *SubmitLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no submission holds a slot or ctx ends.
func (l *SubmitLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot for monitoring.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter's current state.
func (l *SubmitLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
