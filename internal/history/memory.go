// Package history stores recent list submissions. MemoryStore keeps them in
// process; PostgresStore persists them with pgx.
package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/listcheck/internal/core"
)

// DefaultSearchLimit caps Search when the caller passes no limit.
const DefaultSearchLimit = 50

// MemoryStore is an in-process core.JobHistory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []core.HistoryEntry
}

var _ core.JobHistory = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends an entry.
func (m *MemoryStore) Record(ctx context.Context, e core.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Search returns entries whose file name contains query, newest first.
func (m *MemoryStore) Search(ctx context.Context, query string, limit int) ([]core.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	out := make([]core.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if q == "" || strings.Contains(strings.ToLower(e.FileName), q) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Purge drops entries submitted before cutoff.
func (m *MemoryStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var purged int64
	for _, e := range m.entries {
		if e.SubmittedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return purged, nil
}
