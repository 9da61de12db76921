package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event topics emitted by the engine. The event log is observational only:
// no consumer depends on it for correctness.
const (
	EventTokenSwapped        = "token_swapped"
	EventLiquidityAdded      = "liquidity_added"
	EventLiquidityRemoved    = "liquidity_removed"
	EventFeeUpdated          = "fee_updated"
	EventZeroLiquidityPrice  = "zero_liquidity_price"
	EventSupportedTokenAdded = "supported_token_added"
)

// Event is a single entry of the append-only notification log. Detail holds
// the topic-specific payload; amounts are decimal strings to preserve
// precision across JSON boundaries.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Topic     string         `json:"topic"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventSink receives engine events. Sinks are write-only from the engine's
// point of view; a sink failure must never fail the operation that produced
// the event.
type EventSink interface {
	Publish(ctx context.Context, evt Event) error
}

// EventStore persists the notification log and supports the queries used by
// the relay (recent events) and the archiver (aged events).
type EventStore interface {
	Append(ctx context.Context, evt Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBefore(ctx context.Context, before time.Time) ([]Event, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
