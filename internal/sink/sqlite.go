package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/lyricsroman/dbopen"
)

// Schema is the outcome log table.
const Schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	markdown   TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_created ON outcomes(created_at);
`

// SQLite appends events to the outcomes table.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (creating if needed) the database at path.
// The caller must blank-import modernc.org/sqlite.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("sink: sqlite: %w", err)
	}
	return &SQLite{db: db, owned: true}, nil
}

// NewSQLite uses an already open database; Schema must have been applied.
// Close leaves db open.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Send(ctx context.Context, ev Event) error {
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO outcomes (id, type, session_id, url, reason, markdown, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Type, ev.SessionID, ev.URL, ev.Reason, ev.Markdown, ev.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("sink: sqlite insert: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, session_id, url, reason, markdown, created_at
		 FROM outcomes ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sink: sqlite query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var ms int64
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.SessionID, &ev.URL, &ev.Reason, &ev.Markdown, &ms); err != nil {
			return nil, fmt.Errorf("sink: sqlite scan: %w", err)
		}
		ev.At = time.UnixMilli(ms).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
