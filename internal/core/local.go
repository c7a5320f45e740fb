package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalSource says where a local result set came from.
type LocalSource string

const (
	SourceBulk   LocalSource = "bulk"   // bulk extract of an uploaded file
	SourceSimple LocalSource = "simple" // pasted lines
)

// Local CSV download names.
const (
	BulkExportFileName   = "bulk_extracted_emails.csv"
	SimpleExportFileName = "simple_extracted_emails.csv"
)

// LocalResultSet is extraction output held in memory. Extraction answers
// inline, so there is no job id to page through on the job service.
type LocalResultSet struct {
	Handle    string
	Source    LocalSource
	Rows      []ExtractedRow
	CreatedAt time.Time
}

// FileName returns the download name for the set.
func (s *LocalResultSet) FileName() string {
	if s.Source == SourceSimple {
		return SimpleExportFileName
	}
	return BulkExportFileName
}

// LocalPage is one page of a local result set.
type LocalPage struct {
	Handle     string         `json:"handle"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	Rows       []ExtractedRow `json:"rows"`
}

// Page returns the rows for a 1-based page. Pages past the end are empty.
func (s *LocalResultSet) Page(page, pageSize int) LocalPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(s.Rows) {
		start = len(s.Rows)
	}
	if end > len(s.Rows) {
		end = len(s.Rows)
	}

	rows := make([]ExtractedRow, end-start)
	copy(rows, s.Rows[start:end])
	return LocalPage{
		Handle:     s.Handle,
		Page:       page,
		PageSize:   pageSize,
		Total:      len(s.Rows),
		TotalPages: TotalPages(len(s.Rows), pageSize),
		Rows:       rows,
	}
}

// DefaultMaxLocalSets is how many local result sets a workspace keeps.
const DefaultMaxLocalSets = 10

// LocalStore keeps the most recent local result sets. Safe for concurrent use.
type LocalStore struct {
	mu    sync.Mutex
	max   int
	order []string
	sets  map[string]*LocalResultSet
}

// NewLocalStore creates a store holding at most max sets.
func NewLocalStore(max int) *LocalStore {
	if max <= 0 {
		max = DefaultMaxLocalSets
	}
	return &LocalStore{max: max, sets: make(map[string]*LocalResultSet)}
}

// Put stores rows under a new handle, evicting the oldest set when full.
func (s *LocalStore) Put(source LocalSource, rows []ExtractedRow) *LocalResultSet {
	set := &LocalResultSet{
		Handle:    uuid.NewString(),
		Source:    source,
		Rows:      rows,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets[set.Handle] = set
	s.order = append(s.order, set.Handle)
	for len(s.order) > s.max {
		delete(s.sets, s.order[0])
		s.order = s.order[1:]
	}
	return set
}

// Get returns the set for handle or ErrLocalSetNotFound.
func (s *LocalStore) Get(handle string) (*LocalResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[handle]
	if !ok {
		return nil, ErrLocalSetNotFound
	}
	return set, nil
}
