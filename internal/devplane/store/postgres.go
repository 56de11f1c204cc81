package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres stores events in a shared database via a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool, fails fast if the database is
// unreachable, and applies the schema so the server self-bootstraps.
func OpenPostgres(dbURL string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) InsertEvent(ctx context.Context, ev Event) (bool, error) {
	if ev.Source == "" || ev.MessageID == "" || ev.Type == "" {
		return false, errors.New("source, messageId and type are required")
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	if ev.Payload == nil {
		ev.Payload = []byte("{}")
	}

	// RETURNING 1 only when inserted; a duplicate produces no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO events (source, message_id, type, user_id, anonymous_id, name, received_at, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (source, message_id) DO NOTHING
		RETURNING 1
	`,
		ev.Source,
		ev.MessageID,
		ev.Type,
		ev.UserID,
		ev.AnonymousID,
		ev.Name,
		ev.ReceivedAt.UTC(),
		ev.Payload,
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

func (p *Postgres) CountEvents(ctx context.Context, source, name string, from, to time.Time) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM events
		WHERE source=$1
		  AND name=$2
		  AND received_at >= $3
		  AND received_at <  $4
	`, source, name, from.UTC(), to.UTC()).Scan(&count)
	return count, err
}

func (p *Postgres) RecentEvents(ctx context.Context, source, eventType string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT source, message_id, type, user_id, anonymous_id, name, received_at, payload
		FROM events
		WHERE source=$1`
	args := []any{source}
	if eventType != "" {
		query += ` AND type=$2`
		args = append(args, eventType)
	}
	query += fmt.Sprintf(` ORDER BY received_at DESC, message_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.Source,
			&ev.MessageID,
			&ev.Type,
			&ev.UserID,
			&ev.AnonymousID,
			&ev.Name,
			&ev.ReceivedAt,
			&ev.Payload,
		); err != nil {
			return nil, err
		}
		ev.ReceivedAt = ev.ReceivedAt.UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
