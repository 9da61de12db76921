package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

func TestQuoteFormula(t *testing.T) {
	tests := []struct {
		name        string
		reserveFrom uint64
		reserveTo   uint64
		amountIn    uint64
		fee         uint64
		want        uint64
	}{
		{
			// afterFee = 100*997/1000 = 99 (truncated);
			// out = 1000*99/1099 = 90.
			name:        "default fee",
			reserveFrom: 1000, reserveTo: 1000, amountIn: 100, fee: 3,
			want: 90,
		},
		{
			// afterFee = 100; out = 1000*100/1100 = 90 (truncated).
			name:        "zero fee",
			reserveFrom: 1000, reserveTo: 1000, amountIn: 100, fee: 0,
			want: 90,
		},
		{
			// afterFee = 500*950/1000 = 475; out = 3000*475/2475 = 575.
			name:        "maximum fee",
			reserveFrom: 2000, reserveTo: 3000, amountIn: 500, fee: 50,
			want: 575,
		},
		{
			name:        "zero input",
			reserveFrom: 1000, reserveTo: 1000, amountIn: 0, fee: 3,
			want: 0,
		},
		{
			// Input so small the fee rounds it to nothing.
			name:        "dust input",
			reserveFrom: 1000, reserveTo: 1000, amountIn: 1, fee: 3,
			want: 0,
		},
		{
			name:        "empty pools",
			reserveFrom: 0, reserveTo: 0, amountIn: 100, fee: 0,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quote(
				uint256.NewInt(tt.reserveFrom),
				uint256.NewInt(tt.reserveTo),
				uint256.NewInt(tt.amountIn),
				tt.fee,
			)
			if !got.Eq(uint256.NewInt(tt.want)) {
				t.Fatalf("expected %d, got %s", tt.want, got.Dec())
			}
		})
	}
}

func TestQuoteLargeAmounts(t *testing.T) {
	// Whole-token scale: reserves of 1000 tokens each at 1e18 base units.
	reserve := uint256.MustFromDecimal("1000000000000000000000")
	amountIn := uint256.MustFromDecimal("100000000000000000000") // 100 tokens

	// afterFee = 100e18*997/1000 = 99.7e18;
	// out = 1000e18 * 99.7e18 / 1099.7e18.
	want := uint256.MustFromDecimal("90661089388014913158")

	got := quote(reserve, reserve, amountIn, 3)
	if !got.Eq(want) {
		t.Fatalf("expected %s, got %s", want.Dec(), got.Dec())
	}
}

func TestEngineQuoteValidation(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)

	if _, err := rig.engine.Quote(ctx, tokenA, tokenB, uint256.NewInt(100)); !errors.Is(err, domain.ErrUnsupportedToken) {
		t.Errorf("unsupported counter token: expected ErrUnsupportedToken, got %v", err)
	}
	if _, err := rig.engine.Quote(ctx, tokenA, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrSameTokenSwap) {
		t.Errorf("same token: expected ErrSameTokenSwap, got %v", err)
	}
}

func TestEngineQuoteIsSideEffectFree(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.support(t, tokenB)
	rig.seedLiquidity(t, tokenA, 100_000)
	rig.seedLiquidity(t, tokenB, 100_000)

	events := len(rig.sink.topics())
	observations := len(rig.engine.History(tokenB))

	out, err := rig.engine.Quote(ctx, tokenA, tokenB, uint256.NewInt(10_000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if want := uint256.NewInt(9066); !out.Eq(want) {
		t.Errorf("expected quote %s, got %s", want.Dec(), out.Dec())
	}

	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(100_000)) {
		t.Error("quote must not move reserves")
	}
	if len(rig.sink.topics()) != events {
		t.Error("quote must not emit events")
	}
	if len(rig.engine.History(tokenB)) != observations {
		t.Error("quote must not record observations")
	}
}
