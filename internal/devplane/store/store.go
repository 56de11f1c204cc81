// Package store persists the events a dev plane accepts. Two backends share
// one contract: a single-file SQLite database for zero-setup local runs, and
// Postgres for anything shared.
package store

import (
	"context"
	"strings"
	"time"
)

// Event is one message accepted from a batch upload. Payload holds the full
// message document as received; the remaining fields are indexed for
// querying.
type Event struct {
	Source      string
	MessageID   string
	Type        string
	UserID      string
	AnonymousID string

	// Name is the track event name, or the page/screen name for those
	// types.
	Name string

	ReceivedAt time.Time
	Payload    []byte
}

// Store is the persistence contract shared by both backends. InsertEvent
// reports inserted=false for a duplicate (source, messageId) pair, which is
// what makes batch replays safe.
type Store interface {
	Ping(ctx context.Context) error
	InsertEvent(ctx context.Context, ev Event) (bool, error)
	CountEvents(ctx context.Context, source, name string, from, to time.Time) (int64, error)
	RecentEvents(ctx context.Context, source, eventType string, limit int) ([]Event, error)
	Close() error
}

// Open picks a backend from the DSN: postgres:// and postgresql:// URLs get
// a pgx pool, anything else is treated as a SQLite file path.
func Open(dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(dsn)
	}
	return OpenSQLite(dsn)
}
