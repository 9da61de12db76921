package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// IsPaused reports the current operational mode.
func (e *Engine) IsPaused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

// Pause switches the engine to the paused mode, blocking all user-facing
// mutating operations. Owner-only; fails if already paused.
func (e *Engine) Pause(ctx context.Context, caller common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: pause: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return fmt.Errorf("engine: pause: %w", domain.ErrEnginePaused)
	}
	e.paused = true
	e.logger.InfoContext(ctx, "engine paused")
	return nil
}

// Unpause returns the engine to the active mode. Owner-only; fails if not
// paused.
func (e *Engine) Unpause(ctx context.Context, caller common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: unpause: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return fmt.Errorf("engine: unpause: %w", domain.ErrEngineActive)
	}
	e.paused = false
	e.logger.InfoContext(ctx, "engine unpaused")
	return nil
}

// TransferOwnership hands the owner role to a new identity. Owner-only.
func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	release, err := e.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := e.requireOwner(caller); err != nil {
		return fmt.Errorf("engine: transfer ownership: %w", err)
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("engine: transfer ownership: %w", domain.ErrInvalidAddress)
	}

	e.mu.Lock()
	e.owner = newOwner
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "ownership transferred",
		slog.String("previous", caller.Hex()),
		slog.String("owner", newOwner.Hex()),
	)
	return nil
}
