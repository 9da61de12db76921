package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// IsSupported reports whether token is on the whitelist.
func (e *Engine) IsSupported(token common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.supported[token]
}

// SupportedTokens returns the current whitelist.
func (e *Engine) SupportedTokens() []common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]common.Address, 0, len(e.supported))
	for token := range e.supported {
		out = append(out, token)
	}
	return out
}

// AddSupportedToken whitelists a token for liquidity and swap operations.
// Owner-only; not gated by pause state.
func (e *Engine) AddSupportedToken(ctx context.Context, caller, token common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: add token: %w", err)
	}
	if token == (common.Address{}) {
		return fmt.Errorf("engine: add token: %w", domain.ErrInvalidAddress)
	}

	e.mu.Lock()
	if e.supported[token] {
		e.mu.Unlock()
		return fmt.Errorf("engine: add token %s: %w", token.Hex(), domain.ErrAlreadySupported)
	}
	e.supported[token] = true
	e.mu.Unlock()

	e.emit(ctx, domain.EventSupportedTokenAdded, map[string]any{
		"token": token.Hex(),
	})
	return nil
}

// RemoveSupportedToken clears a token's whitelist membership. Owner-only.
// Balances and price history are left untouched; removal only blocks new
// liquidity and swap operations referencing the token.
func (e *Engine) RemoveSupportedToken(ctx context.Context, caller, token common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: remove token: %w", err)
	}
	if token == (common.Address{}) {
		return fmt.Errorf("engine: remove token: %w", domain.ErrInvalidAddress)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.supported[token] {
		return fmt.Errorf("engine: remove token %s: %w", token.Hex(), domain.ErrNotSupported)
	}
	delete(e.supported, token)
	return nil
}
