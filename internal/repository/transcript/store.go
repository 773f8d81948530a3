// Package transcript archives every widget message to SQLite. The archive
// is write-only from the widget's point of view; sessions never reload
// from it.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/komekarch/site/backend/internal/model/chat"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);`

// Entry is one archived message.
type Entry struct {
	Seq       int64     `json:"seq"`
	SessionID string    `json:"sessionId"`
	MessageID string    `json:"messageId"`
	Role      chat.Role `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the SQLite-backed archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("transcript database path is empty")
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transcript schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends msg to the archive of sessionID.
func (s *Store) Record(ctx context.Context, sessionID string, msg chat.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, message_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, msg.ID, string(msg.Role), msg.Text, msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert transcript message: %w", err)
	}
	return nil
}

// List returns the archive of sessionID in insertion order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, message_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry   Entry
			role    string
			created string
		)
		if err := rows.Scan(&entry.Seq, &entry.SessionID, &entry.MessageID, &role, &entry.Text, &created); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		entry.Role = chat.Role(role)
		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse transcript timestamp %q: %w", created, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
