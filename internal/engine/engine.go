// Package engine implements the single-contract swap engine: a whitelist of
// supported tokens, per-token liquidity accounting, constant-product swap
// pricing behind a layered validation chain, owner/pause access control, and
// a price-observation feed for the TWAP oracle.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
	"github.com/yurikoeth/TokenSwapV1/internal/oracle"
)

const (
	// FeeDenominator is the fixed denominator of the proportional input fee.
	FeeDenominator = 1000

	// MaxFeeNumerator caps the fee at 5%.
	MaxFeeNumerator = 50

	// MinRemainingLiquidity is the floor a swap must leave in the output
	// token's ledger, in raw token units.
	MinRemainingLiquidity = 1000

	// maxImpactPercent caps a single swap's output at this share of the
	// output token's ledger balance.
	maxImpactPercent = 30
)

// Config carries the construction parameters of an Engine.
type Config struct {
	// Account is the engine's own custody identity: the account that holds
	// pooled assets.
	Account common.Address

	// Owner is the privileged identity allowed to perform administrative
	// mutations.
	Owner common.Address

	// FeeNumerator is the initial swap fee numerator over FeeDenominator.
	FeeNumerator uint64

	// Clock overrides the time source; nil means time.Now. Tests use this
	// to drive the oracle window deterministically.
	Clock func() time.Time
}

// Engine is the composition root. Every public mutating operation executes
// as one indivisible unit: all validation happens before any asset moves,
// and a failing check aborts with no partial mutation.
type Engine struct {
	account common.Address
	custody domain.Custody
	sink    domain.EventSink
	logger  *slog.Logger
	now     func() time.Time

	// busy is the reentrancy guard: taken at the top of every mutating
	// operation and released on all exit paths. A nested call made while a
	// custody transfer is in flight is rejected, never deadlocked.
	busy atomic.Bool

	// mu protects the state below. It is never held across a custody call.
	mu        sync.RWMutex
	owner     common.Address
	paused    bool
	fee       uint64
	supported map[common.Address]bool
	balances  map[common.Address]*uint256.Int
	prices    *oracle.Oracle
}

// New creates an Engine with the given collaborators. The sink may be nil,
// in which case events are dropped.
func New(cfg Config, custody domain.Custody, sink domain.EventSink, logger *slog.Logger) (*Engine, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("engine: owner: %w", domain.ErrInvalidAddress)
	}
	if cfg.FeeNumerator > MaxFeeNumerator {
		return nil, fmt.Errorf("engine: fee %d: %w", cfg.FeeNumerator, domain.ErrFeeTooHigh)
	}
	if custody == nil {
		return nil, fmt.Errorf("engine: custody is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		account:   cfg.Account,
		custody:   custody,
		sink:      sink,
		logger:    logger.With(slog.String("component", "engine")),
		now:       clock,
		owner:     cfg.Owner,
		fee:       cfg.FeeNumerator,
		supported: make(map[common.Address]bool),
		balances:  make(map[common.Address]*uint256.Int),
		prices:    oracle.New(),
	}, nil
}

// Account returns the engine's custody identity.
func (e *Engine) Account() common.Address {
	return e.account
}

// Owner returns the current owner identity.
func (e *Engine) Owner() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.owner
}

// Fee returns the current fee numerator.
func (e *Engine) Fee() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fee
}

// SetFee updates the fee numerator. Owner-only; not gated by pause state.
func (e *Engine) SetFee(ctx context.Context, caller common.Address, numerator uint64) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: set fee: %w", err)
	}
	if numerator > MaxFeeNumerator {
		return fmt.Errorf("engine: set fee %d: %w", numerator, domain.ErrFeeTooHigh)
	}

	e.mu.Lock()
	e.fee = numerator
	e.mu.Unlock()

	e.emit(ctx, domain.EventFeeUpdated, map[string]any{
		"numerator": numerator,
	})
	return nil
}

// TWAP returns the time-weighted average price for a supported token and a
// validity flag. Insufficient history is not an error: the flag is false and
// the price is zero.
func (e *Engine) TWAP(token common.Address) (*uint256.Int, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.supported[token] {
		return nil, false, fmt.Errorf("engine: twap: %w", domain.ErrUnsupportedToken)
	}
	price, ok := e.prices.TWAP(token, e.now())
	return price, ok, nil
}

// History returns a copy of the token's bounded price history, oldest first.
func (e *Engine) History(token common.Address) []domain.PriceObservation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prices.History(token)
}

// begin takes the per-engine reentrancy guard. Nested or overlapping entry
// is rejected with ErrReentrantCall; the returned release function clears
// the guard and must run on every exit path.
func (e *Engine) begin() (func(), error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrReentrantCall
	}
	return func() { e.busy.Store(false) }, nil
}

// requireOwner fails with ErrUnauthorized unless caller is the owner.
func (e *Engine) requireOwner(caller common.Address) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if caller != e.owner {
		return domain.ErrUnauthorized
	}
	return nil
}

// requireActive fails with ErrEnginePaused while the engine is paused.
func (e *Engine) requireActive() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.paused {
		return domain.ErrEnginePaused
	}
	return nil
}

// ledgerBalance returns the current ledger value for token; zero when the
// token has never held liquidity. Callers must hold e.mu.
func (e *Engine) ledgerBalance(token common.Address) *uint256.Int {
	if bal, ok := e.balances[token]; ok {
		return bal
	}
	return uint256.NewInt(0)
}

// recordPrice asks the oracle for a fresh observation of token's ledger
// balance. It returns false when the balance is zero and no observation was
// recorded; the caller emits the zero-liquidity warning after releasing the
// state lock. Callers must hold e.mu.
func (e *Engine) recordPrice(token common.Address) bool {
	return e.prices.Record(token, e.ledgerBalance(token), e.now())
}

// emit publishes an event to the sink. Events are observational only, so a
// sink failure is logged and swallowed rather than failing the operation.
func (e *Engine) emit(ctx context.Context, topic string, detail map[string]any) {
	if e.sink == nil {
		return
	}
	evt := domain.Event{
		ID:        uuid.New(),
		Topic:     topic,
		Detail:    detail,
		CreatedAt: e.now(),
	}
	if err := e.sink.Publish(ctx, evt); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}
