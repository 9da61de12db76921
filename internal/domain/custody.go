// Package domain defines the core types, errors, and collaborator interfaces
// shared by the swap engine and its infrastructure adapters.
package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Custody abstracts the external token contracts holding the actual asset
// balances. The engine's internal ledger is reconcilable with, but not
// guaranteed equal to, what custody reports: assets can be transferred to
// the engine account out of band (see Engine.SyncBalance).
type Custody interface {
	// BalanceOf returns the custodied balance of account for the given token.
	BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error)

	// Transfer moves amount of token from one account to another. It returns
	// ErrInsufficientUserBalance when the source holds less than amount.
	// A failed transfer must leave both balances unchanged.
	Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error
}
