// Package custody implements domain.Custody. The in-memory bank simulates
// the external token contracts: per-token, per-account balances with mint
// and transfer semantics. Real chain custody is out of scope; the engine
// only ever sees the interface.
package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// Bank is an in-memory custody backend. It deliberately allows minting
// directly to any account, including the engine's, so ledger/custody drift
// and SyncBalance are exercisable.
type Bank struct {
	mu       sync.RWMutex
	balances map[common.Address]map[common.Address]*uint256.Int // token -> account -> balance
}

// NewBank creates an empty Bank.
func NewBank() *Bank {
	return &Bank{
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Mint credits amount of token to account out of thin air.
func (b *Bank) Mint(token, account common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, ok := b.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		b.balances[token] = accounts
	}
	balance, ok := accounts[account]
	if !ok {
		balance = uint256.NewInt(0)
		accounts[account] = balance
	}
	balance.Add(balance, amount)
}

// BalanceOf returns account's balance of token; zero when unknown.
func (b *Bank) BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if accounts, ok := b.balances[token]; ok {
		if balance, ok := accounts[account]; ok {
			return balance.Clone(), nil
		}
	}
	return uint256.NewInt(0), nil
}

// Transfer moves amount of token between accounts. It returns
// domain.ErrInsufficientUserBalance when the source holds less than amount
// and leaves both balances unchanged on any failure.
func (b *Bank) Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount.IsZero() {
		return nil
	}

	accounts := b.balances[token]
	source, ok := accounts[from]
	if !ok || source.Lt(amount) {
		return fmt.Errorf("custody: transfer %s: %w", token.Hex(), domain.ErrInsufficientUserBalance)
	}

	dest, ok := accounts[to]
	if !ok {
		dest = uint256.NewInt(0)
		accounts[to] = dest
	}

	source.Sub(source, amount)
	dest.Add(dest, amount)
	return nil
}

// Compile-time interface check.
var _ domain.Custody = (*Bank)(nil)
