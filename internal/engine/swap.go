package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// Swap exchanges amountIn of fromToken for toToken at the constant-product
// price, subject to the full validation chain: token support, distinct
// tokens, caller balance, output-side liquidity, the post-trade liquidity
// floor, the 30% impact cap, and the caller's slippage bound. Assets move
// only after every check passes. It returns the output amount.
func (e *Engine) Swap(ctx context.Context, caller, fromToken, toToken common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	release, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.requireActive(); err != nil {
		return nil, fmt.Errorf("engine: swap: %w", err)
	}

	amountOut, err := e.validateSwap(ctx, caller, fromToken, toToken, amountIn, minAmountOut)
	if err != nil {
		return nil, err
	}

	// All checks passed; move assets. Pull the input leg first.
	if err := e.custody.Transfer(ctx, fromToken, caller, e.account, amountIn); err != nil {
		return nil, fmt.Errorf("engine: swap: pull input: %w", err)
	}
	if err := e.custody.Transfer(ctx, toToken, e.account, caller, amountOut); err != nil {
		// Unwind the input leg so the failed swap leaves no partial state.
		if undoErr := e.custody.Transfer(ctx, fromToken, e.account, caller, amountIn); undoErr != nil {
			e.logger.ErrorContext(ctx, "swap unwind failed",
				slog.String("token", fromToken.Hex()),
				slog.String("error", undoErr.Error()),
			)
		}
		return nil, fmt.Errorf("engine: swap: push output: %w", err)
	}

	e.mu.Lock()
	fromBalance := e.ledgerBalance(fromToken).Clone()
	e.balances[fromToken] = fromBalance.Add(fromBalance, amountIn)
	toBalance := e.ledgerBalance(toToken).Clone()
	e.balances[toToken] = toBalance.Sub(toBalance, amountOut)
	fromRecorded := e.recordPrice(fromToken)
	toRecorded := e.recordPrice(toToken)
	e.mu.Unlock()

	e.emit(ctx, domain.EventTokenSwapped, map[string]any{
		"from_token": fromToken.Hex(),
		"to_token":   toToken.Hex(),
		"amount_in":  amountIn.Dec(),
		"amount_out": amountOut.Dec(),
	})
	for token, recorded := range map[common.Address]bool{fromToken: fromRecorded, toToken: toRecorded} {
		if !recorded {
			e.emit(ctx, domain.EventZeroLiquidityPrice, map[string]any{
				"token": token.Hex(),
			})
		}
	}
	return amountOut, nil
}

// validateSwap runs the pre-trade validation chain in strict order and
// returns the priced output amount. No state is mutated here.
func (e *Engine) validateSwap(ctx context.Context, caller, fromToken, toToken common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	e.mu.RLock()
	supported := e.supported[fromToken] && e.supported[toToken]
	fromBalance := e.ledgerBalance(fromToken).Clone()
	toBalance := e.ledgerBalance(toToken).Clone()
	fee := e.fee
	e.mu.RUnlock()

	if !supported {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrUnsupportedToken)
	}
	if fromToken == toToken {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrSameTokenSwap)
	}

	userBalance, err := e.custody.BalanceOf(ctx, fromToken, caller)
	if err != nil {
		return nil, fmt.Errorf("engine: swap: custody balance: %w", err)
	}
	if userBalance.Lt(amountIn) {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrInsufficientUserBalance)
	}

	if toBalance.IsZero() {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrInsufficientSwapLiquidity)
	}

	amountOut := quote(fromBalance, toBalance, amountIn, fee)

	remaining := new(uint256.Int).Sub(toBalance, amountOut)
	if amountOut.Gt(toBalance) || remaining.Lt(uint256.NewInt(MinRemainingLiquidity)) {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrInsufficientRemainingLiquidity)
	}

	// Impact cap: amountOut must not exceed 30% of the output reserve.
	impactBound := new(uint256.Int).Mul(toBalance, uint256.NewInt(maxImpactPercent))
	scaledOut := new(uint256.Int).Mul(amountOut, uint256.NewInt(100))
	if scaledOut.Gt(impactBound) {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrExcessiveSwapImpact)
	}

	if amountOut.Lt(minAmountOut) {
		return nil, fmt.Errorf("engine: swap: %w", domain.ErrSlippageExceeded)
	}

	return amountOut, nil
}
