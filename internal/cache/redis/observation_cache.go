package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// ObservationCache implements domain.ObservationCache using Redis hashes.
// Each token's latest observation is stored at key "obs:{address}" with
// fields "price" (decimal string) and "ts" (Unix nanosecond timestamp).
type ObservationCache struct {
	rdb *redis.Client
}

// NewObservationCache creates an ObservationCache backed by the given Client.
func NewObservationCache(c *Client) *ObservationCache {
	return &ObservationCache{rdb: c.Underlying()}
}

func obsKey(token common.Address) string {
	return "obs:" + token.Hex()
}

// SetLatest stores the most recent observation for a token.
func (oc *ObservationCache) SetLatest(ctx context.Context, token common.Address, price *uint256.Int, ts time.Time) error {
	fields := map[string]interface{}{
		"price": price.Dec(),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := oc.rdb.HSet(ctx, obsKey(token), fields).Err(); err != nil {
		return fmt.Errorf("redis: set observation %s: %w", token.Hex(), err)
	}
	return nil
}

// GetLatest retrieves the most recent observation for a token. It returns
// domain.ErrNotFound when no observation has been cached.
func (oc *ObservationCache) GetLatest(ctx context.Context, token common.Address) (*uint256.Int, time.Time, error) {
	vals, err := oc.rdb.HGetAll(ctx, obsKey(token)).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: get observation %s: %w", token.Hex(), err)
	}
	if len(vals) == 0 {
		return nil, time.Time{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	price, err := uint256.FromDecimal(priceStr)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: parse observation price %s: %w", token.Hex(), err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: parse observation ts %s: %w", token.Hex(), err)
	}

	return price, time.Unix(0, tsNano), nil
}

// Compile-time interface check.
var _ domain.ObservationCache = (*ObservationCache)(nil)
