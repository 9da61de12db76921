package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// TokenBalance returns the internal ledger balance for token; zero for
// tokens the ledger has never seen.
func (e *Engine) TokenBalance(token common.Address) *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledgerBalance(token).Clone()
}

// AddLiquidity pulls amount of token from the caller into the engine's
// custody account and credits the ledger. Open to any caller; gated by the
// active mode. The custody transfer is the balance precondition: if the
// caller holds less than amount the transfer fails and nothing is mutated.
func (e *Engine) AddLiquidity(ctx context.Context, caller, token common.Address, amount *uint256.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireActive(); err != nil {
		return fmt.Errorf("engine: add liquidity: %w", err)
	}
	if !e.IsSupported(token) {
		return fmt.Errorf("engine: add liquidity %s: %w", token.Hex(), domain.ErrUnsupportedToken)
	}

	if err := e.custody.Transfer(ctx, token, caller, e.account, amount); err != nil {
		return fmt.Errorf("engine: add liquidity %s: %w", token.Hex(), err)
	}

	e.mu.Lock()
	balance := e.ledgerBalance(token).Clone()
	balance.Add(balance, amount)
	e.balances[token] = balance
	recorded := e.recordPrice(token)
	e.mu.Unlock()

	e.emit(ctx, domain.EventLiquidityAdded, map[string]any{
		"token":  token.Hex(),
		"amount": amount.Dec(),
	})
	if !recorded {
		e.emit(ctx, domain.EventZeroLiquidityPrice, map[string]any{
			"token": token.Hex(),
		})
	}
	return nil
}

// RemoveLiquidity transfers amount of token out of custody to the caller
// and re-synchronizes the ledger to (actual custody − amount) rather than
// merely decrementing the prior ledger value. Owner-only; pausable. It
// returns the amount removed.
func (e *Engine) RemoveLiquidity(ctx context.Context, caller, token common.Address, amount *uint256.Int) (*uint256.Int, error) {
	release, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.requireActive(); err != nil {
		return nil, fmt.Errorf("engine: remove liquidity: %w", err)
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, fmt.Errorf("engine: remove liquidity: %w", err)
	}
	if !e.IsSupported(token) {
		return nil, fmt.Errorf("engine: remove liquidity %s: %w", token.Hex(), domain.ErrUnsupportedToken)
	}

	actual, err := e.custody.BalanceOf(ctx, token, e.account)
	if err != nil {
		return nil, fmt.Errorf("engine: remove liquidity %s: custody balance: %w", token.Hex(), err)
	}
	if actual.Lt(amount) {
		return nil, fmt.Errorf("engine: remove liquidity %s: %w", token.Hex(), domain.ErrInsufficientLiquidity)
	}

	if err := e.custody.Transfer(ctx, token, e.account, caller, amount); err != nil {
		return nil, fmt.Errorf("engine: remove liquidity %s: %w", token.Hex(), err)
	}

	e.mu.Lock()
	e.balances[token] = new(uint256.Int).Sub(actual, amount)
	recorded := e.recordPrice(token)
	e.mu.Unlock()

	e.emit(ctx, domain.EventLiquidityRemoved, map[string]any{
		"token":  token.Hex(),
		"amount": amount.Dec(),
	})
	if !recorded {
		e.emit(ctx, domain.EventZeroLiquidityPrice, map[string]any{
			"token": token.Hex(),
		})
	}
	return amount.Clone(), nil
}

// RemoveAllLiquidity zeroes the token's ledger and transfers the full
// ledger amount out to the caller. Open to any caller (a deliberate
// asymmetry with RemoveLiquidity); pausable. It returns the amount removed.
func (e *Engine) RemoveAllLiquidity(ctx context.Context, caller, token common.Address) (*uint256.Int, error) {
	release, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.requireActive(); err != nil {
		return nil, fmt.Errorf("engine: remove all liquidity: %w", err)
	}
	if !e.IsSupported(token) {
		return nil, fmt.Errorf("engine: remove all liquidity %s: %w", token.Hex(), domain.ErrUnsupportedToken)
	}

	e.mu.RLock()
	amount := e.ledgerBalance(token).Clone()
	e.mu.RUnlock()
	if amount.IsZero() {
		return nil, fmt.Errorf("engine: remove all liquidity %s: %w", token.Hex(), domain.ErrNothingToRemove)
	}

	if err := e.custody.Transfer(ctx, token, e.account, caller, amount); err != nil {
		return nil, fmt.Errorf("engine: remove all liquidity %s: %w", token.Hex(), err)
	}

	e.mu.Lock()
	e.balances[token] = uint256.NewInt(0)
	recorded := e.recordPrice(token)
	e.mu.Unlock()

	e.emit(ctx, domain.EventLiquidityRemoved, map[string]any{
		"token":  token.Hex(),
		"amount": amount.Dec(),
	})
	if !recorded {
		e.emit(ctx, domain.EventZeroLiquidityPrice, map[string]any{
			"token": token.Hex(),
		})
	}
	return amount, nil
}

// SyncBalance overwrites the ledger balance with the actual custodied
// amount, reconciling any drift from out-of-band transfers. Callable by
// anyone; not gated by pause state; no events.
func (e *Engine) SyncBalance(ctx context.Context, token common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if !e.IsSupported(token) {
		return fmt.Errorf("engine: sync balance %s: %w", token.Hex(), domain.ErrUnsupportedToken)
	}

	actual, err := e.custody.BalanceOf(ctx, token, e.account)
	if err != nil {
		return fmt.Errorf("engine: sync balance %s: custody balance: %w", token.Hex(), err)
	}

	e.mu.Lock()
	e.balances[token] = actual.Clone()
	e.mu.Unlock()
	return nil
}

// WithdrawToken is the administrative sweep: it decrements the ledger and
// transfers amount out to the owner without recording a price observation.
// Owner-only; not gated by pause state.
func (e *Engine) WithdrawToken(ctx context.Context, caller, token common.Address, amount *uint256.Int) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: withdraw %s: %w", token.Hex(), err)
	}

	e.mu.RLock()
	balance := e.ledgerBalance(token).Clone()
	e.mu.RUnlock()
	if balance.Lt(amount) {
		return fmt.Errorf("engine: withdraw %s: %w", token.Hex(), domain.ErrInsufficientLiquidity)
	}

	if err := e.custody.Transfer(ctx, token, e.account, caller, amount); err != nil {
		return fmt.Errorf("engine: withdraw %s: %w", token.Hex(), err)
	}

	e.mu.Lock()
	e.balances[token] = balance.Sub(balance, amount)
	e.mu.Unlock()
	return nil
}
