package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaveRecord is one save or download of a session's files.
type SaveRecord struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	Kind      string    `json:"kind"` // "folder" or "download"
	Dir       string    `json:"dir,omitempty"`
	Files     []string  `json:"files"`
	Keys      int       `json:"keys"`
	Modified  int       `json:"modified"`
	SavedAt   time.Time `json:"saved_at"`
}

// HistoryRecorder persists save records.
type HistoryRecorder interface {
	RecordSave(ctx context.Context, rec SaveRecord) error
	RecentSaves(ctx context.Context, limit int) ([]SaveRecord, error)
}

// NopHistory records nothing. It is used when no database is configured.
type NopHistory struct{}

func (NopHistory) RecordSave(context.Context, SaveRecord) error { return nil }

func (NopHistory) RecentSaves(context.Context, int) ([]SaveRecord, error) {
	return []SaveRecord{}, nil
}

var historySchema = []string{`
CREATE TABLE IF NOT EXISTS save_history (
	id         UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	label      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	dir        TEXT NOT NULL DEFAULT '',
	files      TEXT[] NOT NULL,
	key_count  INTEGER NOT NULL,
	modified   INTEGER NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS save_history_saved_at_idx ON save_history (saved_at DESC)`,
}

// PGHistory stores save records in PostgreSQL.
type PGHistory struct {
	pool *pgxpool.Pool
}

func NewPGHistory(pool *pgxpool.Pool) *PGHistory {
	return &PGHistory{pool: pool}
}

// EnsureSchema creates the save_history table if it does not exist.
func (h *PGHistory) EnsureSchema(ctx context.Context) error {
	for _, stmt := range historySchema {
		if _, err := h.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create save_history: %w", err)
		}
	}
	return nil
}

func (h *PGHistory) RecordSave(ctx context.Context, rec SaveRecord) error {
	_, err := h.pool.Exec(ctx, `
		INSERT INTO save_history (id, session_id, label, kind, dir, files, key_count, modified, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.SessionID, rec.Label, rec.Kind, rec.Dir, rec.Files, rec.Keys, rec.Modified, rec.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("insert save_history: %w", err)
	}
	return nil
}

func (h *PGHistory) RecentSaves(ctx context.Context, limit int) ([]SaveRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.pool.Query(ctx, `
		SELECT id, session_id, label, kind, dir, files, key_count, modified, saved_at
		FROM save_history
		ORDER BY saved_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query save_history: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SaveRecord, error) {
		var r SaveRecord
		err := row.Scan(&r.ID, &r.SessionID, &r.Label, &r.Kind, &r.Dir, &r.Files, &r.Keys, &r.Modified, &r.SavedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan save_history: %w", err)
	}
	return recs, nil
}
