package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/custody"
	"github.com/yurikoeth/TokenSwapV1/internal/domain"
	"github.com/yurikoeth/TokenSwapV1/internal/engine"
)

type cacheEntry struct {
	price *uint256.Int
	ts    time.Time
}

// recordingCache captures SetLatest calls so tests can assert which tokens
// were mirrored.
type recordingCache struct {
	entries map[common.Address]cacheEntry
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[common.Address]cacheEntry)}
}

func (c *recordingCache) SetLatest(_ context.Context, token common.Address, price *uint256.Int, ts time.Time) error {
	c.entries[token] = cacheEntry{price: price.Clone(), ts: ts}
	c.sets++
	return nil
}

func (c *recordingCache) GetLatest(_ context.Context, token common.Address) (*uint256.Int, time.Time, error) {
	entry, ok := c.entries[token]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return entry.price, entry.ts, nil
}

var _ domain.ObservationCache = (*recordingCache)(nil)

func mirrorTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestObservationMirrorTokenKeys(t *testing.T) {
	tokenX := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenY := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	history := map[common.Address][]domain.PriceObservation{
		tokenX: {{Price: uint256.NewInt(11), Timestamp: now}},
		tokenY: {{Price: uint256.NewInt(22), Timestamp: now}},
	}

	tests := []struct {
		name      string
		detail    map[string]any
		wantSets  int
		wantToken []common.Address
	}{
		{
			name:      "single token detail",
			detail:    map[string]any{"token": tokenX.Hex()},
			wantSets:  1,
			wantToken: []common.Address{tokenX},
		},
		{
			name: "swap carries both legs",
			detail: map[string]any{
				"from_token": tokenX.Hex(),
				"to_token":   tokenY.Hex(),
				"amount_in":  "100",
			},
			wantSets:  2,
			wantToken: []common.Address{tokenX, tokenY},
		},
		{
			name:     "no token detail",
			detail:   map[string]any{"fee_numerator": uint64(5)},
			wantSets: 0,
		},
		{
			name:     "malformed address ignored",
			detail:   map[string]any{"token": "nope"},
			wantSets: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newRecordingCache()
			mirror := newObservationMirror(cache, mirrorTestLogger())
			mirror.Bind(func(token common.Address) []domain.PriceObservation {
				return history[token]
			})

			evt := domain.Event{ID: uuid.New(), Topic: domain.EventTokenSwapped, Detail: tt.detail, CreatedAt: now}
			if err := mirror.Publish(context.Background(), evt); err != nil {
				t.Fatalf("publish: %v", err)
			}

			if cache.sets != tt.wantSets {
				t.Fatalf("expected %d cache sets, got %d", tt.wantSets, cache.sets)
			}
			for _, token := range tt.wantToken {
				if _, ok := cache.entries[token]; !ok {
					t.Errorf("expected cache entry for %s", token.Hex())
				}
			}
		})
	}
}

func TestObservationMirrorBeforeBind(t *testing.T) {
	cache := newRecordingCache()
	mirror := newObservationMirror(cache, mirrorTestLogger())

	evt := domain.Event{
		ID:     uuid.New(),
		Topic:  domain.EventLiquidityAdded,
		Detail: map[string]any{"token": "0x00000000000000000000000000000000000000aa"},
	}
	if err := mirror.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("expected no cache sets before Bind, got %d", cache.sets)
	}
}

// A swap records fresh observations for both pools; the mirror must advance
// the cached price for both legs, not just events carrying a "token" key.
func TestObservationMirrorAdvancesOnSwap(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0x0000000000000000000000000000000000000001")
	account := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	tokenX := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenY := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	cache := newRecordingCache()
	mirror := newObservationMirror(cache, mirrorTestLogger())

	bank := custody.NewBank()
	eng, err := engine.New(engine.Config{
		Account:      account,
		Owner:        owner,
		FeeNumerator: 3,
	}, bank, mirror, mirrorTestLogger())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	mirror.Bind(eng.History)

	seed := uint256.NewInt(100_000)
	for _, token := range []common.Address{tokenX, tokenY} {
		bank.Mint(token, owner, new(uint256.Int).Mul(seed, uint256.NewInt(2)))
		if err := eng.AddSupportedToken(ctx, owner, token); err != nil {
			t.Fatalf("add token: %v", err)
		}
		if err := eng.AddLiquidity(ctx, owner, token, seed); err != nil {
			t.Fatalf("seed liquidity: %v", err)
		}
	}
	setsAfterSeeding := cache.sets

	if _, err := eng.Swap(ctx, owner, tokenX, tokenY, uint256.NewInt(10_000), uint256.NewInt(0)); err != nil {
		t.Fatalf("swap: %v", err)
	}

	if cache.sets <= setsAfterSeeding {
		t.Fatalf("expected cache sets to advance past %d after swap, got %d", setsAfterSeeding, cache.sets)
	}
	for _, token := range []common.Address{tokenX, tokenY} {
		cached, _, err := cache.GetLatest(ctx, token)
		if err != nil {
			t.Fatalf("get latest %s: %v", token.Hex(), err)
		}
		history := eng.History(token)
		latest := history[len(history)-1]
		if cached.Cmp(latest.Price) != 0 {
			t.Errorf("token %s: cached price %s does not match latest observation %s",
				token.Hex(), cached.Dec(), latest.Price.Dec())
		}
	}
}
