package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	OutcomeFetched = "fetched"
	OutcomeFailed  = "failed"

	// Fixed width so fetched_at sorts correctly as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// FetchRecord is one attempted panel fetch.
type FetchRecord struct {
	ID         string
	PanelID    string
	URL        string
	StatusCode int
	Outcome    string
	Message    string
	BodyBytes  int
	Elapsed    time.Duration
	FetchedAt  time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS fetches (
  id TEXT PRIMARY KEY,
  panel_id TEXT NOT NULL,
  url TEXT NOT NULL,
  status_code INTEGER NOT NULL,
  outcome TEXT NOT NULL,
  message TEXT,
  body_bytes INTEGER NOT NULL DEFAULT 0,
  elapsed_ms INTEGER NOT NULL DEFAULT 0,
  fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetches_fetched_at ON fetches(fetched_at);
CREATE TABLE IF NOT EXISTS write_probe (
  id INTEGER PRIMARY KEY,
  touched_at TEXT NOT NULL
);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails when the database file can be read but not written.
func (r *Repository) CheckWritable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO write_probe (id, touched_at) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET touched_at=excluded.touched_at
`, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	return nil
}

func (r *Repository) RecordFetch(ctx context.Context, rec FetchRecord) error {
	return r.SaveFetches(ctx, []FetchRecord{rec})
}

func (r *Repository) SaveFetches(ctx context.Context, records []FetchRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO fetches (id, panel_id, url, status_code, outcome, message, body_bytes, elapsed_ms, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.FetchedAt.IsZero() {
			rec.FetchedAt = now
		}
		_, err := stmt.ExecContext(
			ctx,
			rec.ID,
			rec.PanelID,
			rec.URL,
			rec.StatusCode,
			rec.Outcome,
			rec.Message,
			rec.BodyBytes,
			rec.Elapsed.Milliseconds(),
			rec.FetchedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("save fetch %s: %w", rec.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListFetches returns the most recent fetches first.
func (r *Repository) ListFetches(ctx context.Context, limit int) ([]FetchRecord, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, panel_id, url, status_code, outcome, COALESCE(message, ''), body_bytes, elapsed_ms, fetched_at
FROM fetches
ORDER BY fetched_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetches: %w", err)
	}
	defer rows.Close()

	records := make([]FetchRecord, 0, limit)
	for rows.Next() {
		var rec FetchRecord
		var elapsedMS int64
		var fetchedAt string
		if err := rows.Scan(
			&rec.ID,
			&rec.PanelID,
			&rec.URL,
			&rec.StatusCode,
			&rec.Outcome,
			&rec.Message,
			&rec.BodyBytes,
			&elapsedMS,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fetch: %w", err)
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		rec.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}
