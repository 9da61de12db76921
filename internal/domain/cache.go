package domain

import (
	"context"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ObservationCache stores the latest recorded price per token for cheap
// relay-side reads. It is a cache over the oracle's history, never the
// source of truth.
type ObservationCache interface {
	// SetLatest stores the most recent observation for a token.
	SetLatest(ctx context.Context, token common.Address, price *uint256.Int, ts time.Time) error

	// GetLatest retrieves the most recent observation for a token. It
	// returns ErrNotFound when no observation has been cached.
	GetLatest(ctx context.Context, token common.Address) (*uint256.Int, time.Time, error)
}

// SignalBus is a lightweight pub/sub channel used to fan events out to
// external consumers such as the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter applies a sliding-window request limit per key.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under the limit
	// and, if so, counts it.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// EventArchiver moves aged event-log entries to cold storage and returns the
// number of entries archived.
type EventArchiver interface {
	ArchiveEvents(ctx context.Context, before time.Time) (int64, error)
}
