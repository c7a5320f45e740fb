package history

// convert.go maps history entries to and from pgtype values. Empty strings
// and zero counts are stored as NULL.

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/listcheck/internal/core"
)

// historyRow is a scanned list_history row.
type historyRow struct {
	ID          pgtype.UUID
	FileName    string
	FileSize    int64
	Mode        string
	Column      string
	JobID       pgtype.Text
	LocalHandle pgtype.Text
	Rows        pgtype.Int4
	SubmittedAt pgtype.Timestamptz
}

func (r historyRow) entry() core.HistoryEntry {
	e := core.HistoryEntry{
		ID:          pgUUIDToString(r.ID),
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		Mode:        core.Mode(r.Mode),
		Column:      r.Column,
		JobID:       r.JobID.String,
		LocalHandle: r.LocalHandle.String,
		Rows:        int(r.Rows.Int32),
	}
	if r.SubmittedAt.Valid {
		e.SubmittedAt = r.SubmittedAt.Time.UTC()
	}
	return e
}

// toPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgInt4 converts an int to pgtype.Int4. Zero is a real count here, so
// only negative values are stored as NULL.
func toPgInt4(i int) pgtype.Int4 {
	if i < 0 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// toPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func newPgUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// pgUUIDToString returns "" for an invalid UUID.
func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
