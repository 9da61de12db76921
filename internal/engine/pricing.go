package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// quote computes the constant-product swap output for the given reserves,
// input amount, and fee numerator:
//
//	amountInAfterFee = amountIn * (FeeDenominator - fee) / FeeDenominator
//	amountOut        = reserveTo * amountInAfterFee / (reserveFrom + amountInAfterFee)
//
// All arithmetic is unsigned with truncating division; the result is a pure
// function of its integer inputs.
func quote(reserveFrom, reserveTo, amountIn *uint256.Int, fee uint64) *uint256.Int {
	afterFee := new(uint256.Int).Mul(amountIn, uint256.NewInt(FeeDenominator-fee))
	afterFee.Div(afterFee, uint256.NewInt(FeeDenominator))

	denominator := new(uint256.Int).Add(reserveFrom, afterFee)
	if denominator.IsZero() {
		return uint256.NewInt(0)
	}

	out := new(uint256.Int).Mul(reserveTo, afterFee)
	return out.Div(out, denominator)
}

// Quote previews the output amount of a swap against the current reserves
// and fee without moving any assets or recording observations.
func (e *Engine) Quote(ctx context.Context, fromToken, toToken common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.supported[fromToken] || !e.supported[toToken] {
		return nil, fmt.Errorf("engine: quote: %w", domain.ErrUnsupportedToken)
	}
	if fromToken == toToken {
		return nil, fmt.Errorf("engine: quote: %w", domain.ErrSameTokenSwap)
	}

	return quote(e.ledgerBalance(fromToken), e.ledgerBalance(toToken), amountIn, e.fee), nil
}
