package history

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/listcheck/internal/config"
	"github.com/JonMunkholm/listcheck/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS list_history (
	id           UUID PRIMARY KEY,
	file_name    TEXT        NOT NULL,
	file_size    BIGINT      NOT NULL DEFAULT 0,
	mode         TEXT        NOT NULL,
	column_name  TEXT        NOT NULL,
	job_id       TEXT,
	local_handle TEXT,
	row_count    INTEGER     NOT NULL DEFAULT 0,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS list_history_submitted_at_idx ON list_history (submitted_at DESC);
`

// PostgresStore is a core.JobHistory backed by a list_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ core.JobHistory = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing pool. Call Migrate before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool from cfg, pings it and creates the table.
func Connect(ctx context.Context, cfg config.HistoryConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store := NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the history table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create list_history: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Record inserts an entry. Entries without an id get one.
func (p *PostgresStore) Record(ctx context.Context, e core.HistoryEntry) error {
	id := toPgUUID(e.ID)
	if !id.Valid {
		id = newPgUUID()
	}
	submitted := e.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO list_history
			(id, file_name, file_size, mode, column_name, job_id, local_handle, row_count, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		e.FileName,
		e.FileSize,
		string(e.Mode),
		e.Column,
		toPgText(e.JobID),
		toPgText(e.LocalHandle),
		toPgInt4(e.Rows),
		toPgTimestamptz(submitted),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Search returns entries whose file name contains query, newest first.
func (p *PostgresStore) Search(ctx context.Context, query string, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, file_name, file_size, mode, column_name, job_id, local_handle, row_count, submitted_at
		FROM list_history
		WHERE file_name ILIKE $1 ESCAPE '\'
		ORDER BY submitted_at DESC
		LIMIT $2`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	return entries, nil
}

// Purge deletes entries submitted before cutoff.
func (p *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM list_history WHERE submitted_at < $1`, toPgTimestamptz(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.CollectableRow) (core.HistoryEntry, error) {
	var r historyRow
	err := row.Scan(&r.ID, &r.FileName, &r.FileSize, &r.Mode, &r.Column,
		&r.JobID, &r.LocalHandle, &r.Rows, &r.SubmittedAt)
	if err != nil {
		return core.HistoryEntry{}, err
	}
	return r.entry(), nil
}

// likePattern turns a search string into an ILIKE substring pattern with
// the wildcard characters escaped.
func likePattern(query string) string {
	q := strings.TrimSpace(query)
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}
