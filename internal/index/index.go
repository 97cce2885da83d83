// Package index provides a SQLite-backed catalog of review sessions. The
// JSON documents under the data directory remain the source of truth; the
// index only serves listing and lookup without scanning the filesystem.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	source_file_id   TEXT NOT NULL DEFAULT '',
	item_count       INTEGER NOT NULL DEFAULT 0,
	unresolved_count INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	finalized_at     DATETIME,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_source ON sessions(source_file_id);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

// SessionIndex defines the catalog operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing
// with mocks.
type SessionIndex interface {
	UpsertSession(row SessionRow) error
	DeleteSession(id string) error
	GetSession(id string) (*SessionRow, error)
	ListSessions(limit, offset int, status string) ([]SessionRow, int, error)
	Close() error
}

// Verify *DB satisfies SessionIndex at compile time.
var _ SessionIndex = (*DB)(nil)

// DB wraps a sql.DB with session catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
