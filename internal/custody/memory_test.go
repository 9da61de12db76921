package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

var (
	token = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestMintAndBalanceOf(t *testing.T) {
	ctx := context.Background()
	bank := NewBank()

	balance, err := bank.BalanceOf(ctx, token, alice)
	if err != nil {
		t.Fatalf("balance of unknown account: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance.Dec())
	}

	bank.Mint(token, alice, uint256.NewInt(500))
	bank.Mint(token, alice, uint256.NewInt(250))

	balance, err = bank.BalanceOf(ctx, token, alice)
	if err != nil {
		t.Fatalf("balance after mint: %v", err)
	}
	if want := uint256.NewInt(750); !balance.Eq(want) {
		t.Fatalf("expected %s, got %s", want.Dec(), balance.Dec())
	}
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	ctx := context.Background()
	bank := NewBank()
	bank.Mint(token, alice, uint256.NewInt(100))

	balance, _ := bank.BalanceOf(ctx, token, alice)
	balance.Add(balance, uint256.NewInt(1_000_000))

	again, _ := bank.BalanceOf(ctx, token, alice)
	if want := uint256.NewInt(100); !again.Eq(want) {
		t.Fatalf("caller mutation leaked into bank state: got %s", again.Dec())
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(b *Bank)
		amount  *uint256.Int
		wantErr error
		from    *uint256.Int // expected balances after
		to      *uint256.Int
	}{
		{
			name:   "moves funds",
			setup:  func(b *Bank) { b.Mint(token, alice, uint256.NewInt(100)) },
			amount: uint256.NewInt(40),
			from:   uint256.NewInt(60),
			to:     uint256.NewInt(40),
		},
		{
			name:    "insufficient source",
			setup:   func(b *Bank) { b.Mint(token, alice, uint256.NewInt(10)) },
			amount:  uint256.NewInt(40),
			wantErr: domain.ErrInsufficientUserBalance,
			from:    uint256.NewInt(10),
			to:      uint256.NewInt(0),
		},
		{
			name:    "unknown source account",
			setup:   func(b *Bank) {},
			amount:  uint256.NewInt(1),
			wantErr: domain.ErrInsufficientUserBalance,
			from:    uint256.NewInt(0),
			to:      uint256.NewInt(0),
		},
		{
			name:   "zero amount is a no-op even from unknown accounts",
			setup:  func(b *Bank) {},
			amount: uint256.NewInt(0),
			from:   uint256.NewInt(0),
			to:     uint256.NewInt(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := NewBank()
			tt.setup(bank)

			err := bank.Transfer(ctx, token, alice, bob, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			fromBal, _ := bank.BalanceOf(ctx, token, alice)
			toBal, _ := bank.BalanceOf(ctx, token, bob)
			if !fromBal.Eq(tt.from) {
				t.Errorf("source balance: expected %s, got %s", tt.from.Dec(), fromBal.Dec())
			}
			if !toBal.Eq(tt.to) {
				t.Errorf("dest balance: expected %s, got %s", tt.to.Dec(), toBal.Dec())
			}
		})
	}
}

func TestTransferSelf(t *testing.T) {
	ctx := context.Background()
	bank := NewBank()
	bank.Mint(token, alice, uint256.NewInt(100))

	if err := bank.Transfer(ctx, token, alice, alice, uint256.NewInt(30)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, _ := bank.BalanceOf(ctx, token, alice)
	if want := uint256.NewInt(100); !balance.Eq(want) {
		t.Fatalf("self transfer changed balance: got %s", balance.Dec())
	}
}
