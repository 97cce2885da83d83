package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Listing status filters.
const (
	StatusAny       = ""
	StatusOpen      = "open"
	StatusFinalized = "finalized"
)

// SessionRow represents a row in the sessions table.
type SessionRow struct {
	ID              string
	SourceFileID    string
	ItemCount       int
	UnresolvedCount int
	CreatedAt       time.Time
	FinalizedAt     *time.Time
	UpdatedAt       time.Time
}

// UpsertSession inserts or replaces a session row.
func (db *DB) UpsertSession(row SessionRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, source_file_id, item_count, unresolved_count, created_at, finalized_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_file_id   = excluded.source_file_id,
			item_count       = excluded.item_count,
			unresolved_count = excluded.unresolved_count,
			finalized_at     = excluded.finalized_at,
			updated_at       = excluded.updated_at
	`, row.ID, row.SourceFileID, row.ItemCount, row.UnresolvedCount, row.CreatedAt, row.FinalizedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert session: %w", err)
	}
	return nil
}

// DeleteSession removes a session row. Deleting an unknown id is a no-op.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete session: %w", err)
	}
	return nil
}

// GetSession returns the row for id, or nil when the session is not indexed.
func (db *DB) GetSession(id string) (*SessionRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, source_file_id, item_count, unresolved_count, created_at, finalized_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	var out SessionRow
	var finalized sql.NullTime
	err := row.Scan(&out.ID, &out.SourceFileID, &out.ItemCount, &out.UnresolvedCount, &out.CreatedAt, &finalized, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get session: %w", err)
	}
	if finalized.Valid {
		t := finalized.Time
		out.FinalizedAt = &t
	}
	return &out, nil
}

// ListSessions returns a page of sessions ordered newest first, plus the
// total count matching the status filter.
func (db *DB) ListSessions(limit, offset int, status string) ([]SessionRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	switch status {
	case StatusAny:
	case StatusOpen:
		where = "WHERE finalized_at IS NULL"
	case StatusFinalized:
		where = "WHERE finalized_at IS NOT NULL"
	default:
		return nil, 0, fmt.Errorf("index: unknown status filter %q", status)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM sessions ` + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count sessions: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, source_file_id, item_count, unresolved_count, created_at, finalized_at, updated_at
		FROM sessions `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var finalized sql.NullTime
		if err := rows.Scan(&r.ID, &r.SourceFileID, &r.ItemCount, &r.UnresolvedCount, &r.CreatedAt, &finalized, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("index: scan session: %w", err)
		}
		if finalized.Valid {
			t := finalized.Time
			r.FinalizedAt = &t
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}
