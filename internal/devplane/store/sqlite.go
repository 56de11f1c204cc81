package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite stores events in a single WAL-mode database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The driver serializes writers anyway; one connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := initSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initSQLite(db *sql.DB) error {
	ctx := context.Background()

	var journalMode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL;").Scan(&journalMode); err != nil {
		return fmt.Errorf("sqlite: set journal_mode=wal: %w", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		return fmt.Errorf("sqlite: journal_mode=%q, want wal", journalMode)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;"); err != nil {
		return fmt.Errorf("sqlite: set synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) InsertEvent(ctx context.Context, ev Event) (bool, error) {
	if ev.Source == "" || ev.MessageID == "" || ev.Type == "" {
		return false, errors.New("source, messageId and type are required")
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	if ev.Payload == nil {
		ev.Payload = []byte("{}")
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO events (source, message_id, type, user_id, anonymous_id, name, received_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, message_id) DO NOTHING;
`,
		ev.Source,
		ev.MessageID,
		ev.Type,
		ev.UserID,
		ev.AnonymousID,
		ev.Name,
		ev.ReceivedAt.UTC().UnixNano(),
		ev.Payload,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) CountEvents(ctx context.Context, source, name string, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM events
WHERE source = ?
  AND name = ?
  AND received_at >= ?
  AND received_at <  ?;
`, source, name, from.UTC().UnixNano(), to.UTC().UnixNano()).Scan(&count)
	return count, err
}

func (s *SQLite) RecentEvents(ctx context.Context, source, eventType string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT source, message_id, type, user_id, anonymous_id, name, received_at, payload
FROM events
WHERE source = ?`
	args := []any{source}
	if eventType != "" {
		query += " AND type = ?"
		args = append(args, eventType)
	}
	query += " ORDER BY received_at DESC, message_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		var receivedAtNanos int64
		if err := rows.Scan(
			&ev.Source,
			&ev.MessageID,
			&ev.Type,
			&ev.UserID,
			&ev.AnonymousID,
			&ev.Name,
			&receivedAtNanos,
			&ev.Payload,
		); err != nil {
			return nil, err
		}
		ev.ReceivedAt = time.Unix(0, receivedAtNanos).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
