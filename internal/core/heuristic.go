package core

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern is deliberately loose: something, @, something, dot, something.
var emailPattern = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsCandidate reports whether a single value looks like a target value for
// the mode. Values are trimmed before checking.
func IsCandidate(mode Mode, value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	switch mode {
	case ModeExtract:
		return strings.HasPrefix(v, "http")
	case ModeVerify:
		return emailPattern.MatchString(v)
	default:
		return false
	}
}

// ColumnCount is the number of candidate values a column holds in the preview.
type ColumnCount struct {
	Column     string `json:"column"`
	Candidates int    `json:"candidates"`
}

// CandidateCounts counts candidate values per column, in header order.
func CandidateCounts(mode Mode, p Preview) []ColumnCount {
	counts := make([]ColumnCount, len(p.Fields))
	for i, f := range p.Fields {
		counts[i].Column = f
	}
	for _, row := range p.Rows {
		for i, cell := range row.cells {
			if IsCandidate(mode, cell) {
				counts[i].Candidates++
			}
		}
	}
	return counts
}

// DetectColumn returns the first column, in header order, holding at least
// one candidate value. If no cell in any column qualifies the file is
// unusable and a *CandidateError wrapping ErrNoCandidateFound is returned.
func DetectColumn(mode Mode, p Preview) (string, error) {
	for _, c := range CandidateCounts(mode, p) {
		if c.Candidates > 0 {
			return c.Column, nil
		}
	}
	return "", &CandidateError{Err: ErrNoCandidateFound, Mode: mode}
}

// ValidateColumn checks that name is a header column with at least one
// candidate value in the preview.
func ValidateColumn(mode Mode, p Preview, name string) error {
	i := p.Fields.Index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	for _, row := range p.Rows {
		if IsCandidate(mode, row.cells[i]) {
			return nil
		}
	}
	return &CandidateError{Err: ErrColumnHasNoValidValues, Mode: mode, Column: name}
}
