package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. The table is
// append-only; rows are removed only by the archiver after upload to cold
// storage.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts a new event row. The detail map is stored as JSONB.
func (s *EventStore) Append(ctx context.Context, evt domain.Event) error {
	detailJSON, err := json.Marshal(evt.Detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal event detail: %w", err)
	}

	const query = `INSERT INTO engine_events (id, topic, detail, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, evt.ID, evt.Topic, detailJSON, evt.CreatedAt); err != nil {
		return fmt.Errorf("postgres: append event %s: %w", evt.Topic, err)
	}
	return nil
}

// ListRecent returns the newest events, newest first.
func (s *EventStore) ListRecent(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, topic, detail, created_at
		FROM engine_events
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListBefore returns all events created strictly before the given cutoff,
// oldest first, for archival.
func (s *EventStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error) {
	const query = `
		SELECT id, topic, detail, created_at
		FROM engine_events
		WHERE created_at < $1
		ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events before %v: %w", before, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteBefore removes events created strictly before the cutoff and
// returns the number of rows deleted. Called by the archiver after a
// verified upload.
func (s *EventStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM engine_events WHERE created_at < $1`
	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete events before %v: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

// scanEvents converts query rows into domain events.
func scanEvents(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var (
			evt        domain.Event
			detailJSON []byte
		)
		if err := rows.Scan(&evt.ID, &evt.Topic, &detailJSON, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &evt.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal event detail: %w", err)
			}
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return events, nil
}

// Compile-time interface check.
var _ domain.EventStore = (*EventStore)(nil)
