package domain

import "errors"

var (
	// Validation errors: the caller passed a malformed or policy-violating
	// argument.
	ErrInvalidAddress   = errors.New("invalid address")
	ErrAlreadySupported = errors.New("token already supported")
	ErrNotSupported     = errors.New("token not supported")
	ErrUnsupportedToken = errors.New("unsupported token")
	ErrSameTokenSwap    = errors.New("cannot swap a token for itself")
	ErrFeeTooHigh       = errors.New("fee numerator exceeds maximum")

	// Liquidity errors: the requested movement exceeds what the ledger or
	// custody can support, or would breach the liquidity floor.
	ErrInsufficientLiquidity          = errors.New("insufficient liquidity")
	ErrInsufficientSwapLiquidity      = errors.New("no liquidity for output token")
	ErrInsufficientRemainingLiquidity = errors.New("swap would breach liquidity floor")
	ErrNothingToRemove                = errors.New("nothing to remove")

	// Market-protection errors: the trade is individually valid but violates
	// a bound meant to prevent manipulation or bad execution.
	ErrExcessiveSwapImpact = errors.New("swap impact exceeds cap")
	ErrSlippageExceeded    = errors.New("slippage tolerance exceeded")

	// Balance errors.
	ErrInsufficientUserBalance = errors.New("insufficient user balance")

	// Access errors.
	ErrUnauthorized  = errors.New("caller is not the owner")
	ErrEnginePaused  = errors.New("engine is paused")
	ErrEngineActive  = errors.New("engine is not paused")
	ErrReentrantCall = errors.New("reentrant call rejected")

	// Infrastructure errors.
	ErrNotFound = errors.New("not found")
)
