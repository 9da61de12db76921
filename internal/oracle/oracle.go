// Package oracle maintains per-token bounded price histories and answers
// time-weighted-average-price queries over a trailing window.
//
// The observation price is derived solely from one token's ledger balance
// (scale squared over balance), NOT from the ratio of two pool reserves, so
// the TWAP is a proxy for inverse liquidity over time rather than a true
// exchange-rate oracle. Preserved as-is pending product review.
package oracle

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

const (
	// HistoryCap is the maximum number of observations retained per token.
	// Once at capacity the oldest observation is evicted FIFO.
	HistoryCap = 5

	// MinObservations is the minimum history length for a TWAP to be
	// computable.
	MinObservations = 5

	// Window is the trailing period a TWAP query covers.
	Window = 24 * time.Hour
)

var (
	// scaleSquared is 1e36: the square of the 1e18 fixed-point base.
	scaleSquared = uint256.MustFromDecimal("1000000000000000000000000000000000000")

	// scaleAdjust lifts the inverse-balance quotient back into a usable
	// fixed-point range.
	scaleAdjust = uint256.NewInt(1_000_000_000)
)

// Oracle holds the bounded price history for every observed token. It is not
// safe for concurrent use; the engine serializes all access.
type Oracle struct {
	histories map[common.Address][]domain.PriceObservation
}

// New creates an empty Oracle.
func New() *Oracle {
	return &Oracle{
		histories: make(map[common.Address][]domain.PriceObservation),
	}
}

// CurrentPrice derives the observation price from a ledger balance:
// scale² / balance, truncating, then scaled by the adjustment factor.
// It returns nil for a zero balance, for which no price is defined.
func CurrentPrice(balance *uint256.Int) *uint256.Int {
	if balance == nil || balance.IsZero() {
		return nil
	}
	price := new(uint256.Int).Div(scaleSquared, balance)
	return price.Mul(price, scaleAdjust)
}

// Record appends a (now, price) observation for token, deriving the price
// from balance. When the balance is zero no observation is recorded and
// Record returns false; the caller is expected to emit a zero-liquidity
// warning instead.
func (o *Oracle) Record(token common.Address, balance *uint256.Int, now time.Time) bool {
	price := CurrentPrice(balance)
	if price == nil {
		return false
	}

	obs := domain.PriceObservation{Timestamp: now, Price: price}
	hist := o.histories[token]
	if len(hist) >= HistoryCap {
		// Slide the window: drop the oldest, append at the tail.
		copy(hist, hist[1:])
		hist[len(hist)-1] = obs
	} else {
		hist = append(hist, obs)
	}
	o.histories[token] = hist
	return true
}

// History returns a copy of the token's observation history, oldest first.
func (o *Oracle) History(token common.Address) []domain.PriceObservation {
	hist := o.histories[token]
	out := make([]domain.PriceObservation, len(hist))
	copy(out, hist)
	return out
}

// TWAP computes the time-weighted average price for token as of now. Each
// observed price is weighted by the duration it remained the most recent
// observation, with the final price extended forward to now.
//
// It returns (0, false) rather than an error when the TWAP is not yet
// computable: fewer than MinObservations in the history, or a zero total
// time weight (for example every in-window observation sharing now as its
// timestamp).
func (o *Oracle) TWAP(token common.Address, now time.Time) (*uint256.Int, bool) {
	hist := o.histories[token]
	if len(hist) < MinObservations {
		return uint256.NewInt(0), false
	}

	periodStart := now.Add(-Window)

	var (
		weighted = new(uint256.Int)
		timeSum  uint64
		prev     *domain.PriceObservation
	)
	for i := range hist {
		obs := &hist[i]
		if obs.Timestamp.Before(periodStart) {
			continue
		}
		// Observations at or past the query time should not occur; stop
		// rather than assign them negative weight.
		if !obs.Timestamp.Before(now) {
			break
		}
		if prev != nil {
			dt := uint64(obs.Timestamp.Sub(prev.Timestamp) / time.Second)
			weighted.Add(weighted, new(uint256.Int).Mul(prev.Price, uint256.NewInt(dt)))
			timeSum += dt
		}
		prev = obs
	}

	// Extend the last in-force price forward to now.
	if prev != nil && prev.Timestamp.Before(now) {
		dt := uint64(now.Sub(prev.Timestamp) / time.Second)
		weighted.Add(weighted, new(uint256.Int).Mul(prev.Price, uint256.NewInt(dt)))
		timeSum += dt
	}

	if timeSum == 0 {
		return uint256.NewInt(0), false
	}
	return weighted.Div(weighted, uint256.NewInt(timeSum)), true
}
