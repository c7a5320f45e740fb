// Package core provides the ingestion and job orchestration logic for listcheck.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects what a list is processed for.
type Mode string

const (
	ModeExtract Mode = "extract" // target column holds website URLs
	ModeVerify  Mode = "verify"  // target column holds email addresses
)

// ParseMode converts user input to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeExtract || m == ModeVerify
}

// TargetNoun is the human name of the values the mode looks for.
func (m Mode) TargetNoun() string {
	if m == ModeExtract {
		return "website URL"
	}
	return "email address"
}

// FieldSet is the ordered list of distinct column names from a file header.
type FieldSet []string

// Contains reports whether name is one of the fields.
func (f FieldSet) Contains(name string) bool {
	return f.Index(name) >= 0
}

// Index returns the position of name, or -1.
func (f FieldSet) Index(name string) int {
	for i, field := range f {
		if field == name {
			return i
		}
	}
	return -1
}

// PreviewRow is one sampled data row keyed by column name.
type PreviewRow struct {
	fields FieldSet
	cells  []string
}

func newPreviewRow(fields FieldSet, record []string) PreviewRow {
	cells := make([]string, len(fields))
	copy(cells, record)
	return PreviewRow{fields: fields, cells: cells}
}

// Get returns the cell for a column.
func (r PreviewRow) Get(name string) (string, bool) {
	i := r.fields.Index(name)
	if i < 0 {
		return "", false
	}
	return r.cells[i], true
}

// Cells returns the cells in header order.
func (r PreviewRow) Cells() []string {
	out := make([]string, len(r.cells))
	copy(out, r.cells)
	return out
}

// Values returns the row as a column name to cell map.
func (r PreviewRow) Values() map[string]string {
	m := make(map[string]string, len(r.fields))
	for i, f := range r.fields {
		m[f] = r.cells[i]
	}
	return m
}

func (r PreviewRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Values())
}

// Preview is the header plus the first few data rows of a file.
type Preview struct {
	Fields FieldSet     `json:"fields"`
	Rows   []PreviewRow `json:"rows"`
}

// UploadFile is an accepted file held in memory until submission.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}

// VerificationStatus is the verdict the job service gives an address.
type VerificationStatus string

const (
	StatusValid     VerificationStatus = "valid"
	StatusInvalid   VerificationStatus = "invalid"
	StatusAcceptAll VerificationStatus = "accept_all"
)

// BounceType qualifies an invalid verdict.
type BounceType string

const (
	BounceHard BounceType = "hard"
	BounceSoft BounceType = "soft"
)

// RowResult is one row of job output, either an ExtractedRow or a
// VerificationRow.
type RowResult interface {
	RowEmail() string
	rowResult()
}

// ExtractedRow is an email address found on a website.
type ExtractedRow struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
	Site   string `json:"site"`
}

func (r ExtractedRow) RowEmail() string { return r.Email }
func (ExtractedRow) rowResult()         {}

// VerificationRow is the verdict for one email address.
type VerificationRow struct {
	Email        string             `json:"email"`
	Status       VerificationStatus `json:"status"`
	Reason       string             `json:"reason"`
	BounceType   *BounceType        `json:"bounceType,omitempty"`
	IsDisposable *bool              `json:"isDisposable,omitempty"`
	IsRoleBased  *bool              `json:"isRoleBased,omitempty"`
	CheckedAt    *time.Time         `json:"checkedAt,omitempty"`
}

func (r VerificationRow) RowEmail() string { return r.Email }
func (VerificationRow) rowResult()         {}

// ResultPage is one page of a job's results. Total and the three counters are
// job-wide values from the job service; Rows holds only this page.
type ResultPage struct {
	JobID     string      `json:"jobId"`
	FileName  string      `json:"fileName"`
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	Total     int         `json:"total"`
	Valid     int         `json:"valid"`
	Invalid   int         `json:"invalid"`
	AcceptAll int         `json:"acceptAll"`
	Rows      []RowResult `json:"results"`
}

// TotalPages returns the page count for the job.
func (p ResultPage) TotalPages() int {
	return TotalPages(p.Total, p.PageSize)
}

// DashboardStats are the job service's aggregate counters.
type DashboardStats struct {
	TotalToday int `json:"totalToday"`
	TotalAll   int `json:"totalAll"`
	Good       int `json:"good"`
	Risky      int `json:"risky"`
	Invalid    int `json:"invalid"`
}
