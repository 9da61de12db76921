package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

func TestAddLiquidity(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.bank.Mint(tokenA, aliceAddr, uint256.NewInt(1000))

	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenB, uint256.NewInt(100)); !errors.Is(err, domain.ErrUnsupportedToken) {
		t.Errorf("unsupported token: expected ErrUnsupportedToken, got %v", err)
	}
	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(5000)); !errors.Is(err, domain.ErrInsufficientUserBalance) {
		t.Errorf("over balance: expected ErrInsufficientUserBalance, got %v", err)
	}

	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(400)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(400)) {
		t.Errorf("ledger: expected 400, got %s", got.Dec())
	}
	engineBal, _ := rig.bank.BalanceOf(ctx, tokenA, engineAddr)
	if !engineBal.Eq(uint256.NewInt(400)) {
		t.Errorf("custody: expected engine to hold 400, got %s", engineBal.Dec())
	}
	aliceBal, _ := rig.bank.BalanceOf(ctx, tokenA, aliceAddr)
	if !aliceBal.Eq(uint256.NewInt(600)) {
		t.Errorf("custody: expected alice to hold 600, got %s", aliceBal.Dec())
	}

	if rig.sink.count(domain.EventLiquidityAdded) != 1 {
		t.Error("expected one liquidity_added event")
	}
	if got := len(rig.engine.History(tokenA)); got != 1 {
		t.Errorf("expected one price observation, got %d", got)
	}
}

func TestAddLiquidityPaused(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.bank.Mint(tokenA, aliceAddr, uint256.NewInt(1000))

	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrEnginePaused) {
		t.Errorf("expected ErrEnginePaused, got %v", err)
	}
}

func TestRemoveLiquidity(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	if _, err := rig.engine.RemoveLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner: expected ErrUnauthorized, got %v", err)
	}
	if _, err := rig.engine.RemoveLiquidity(ctx, ownerAddr, tokenA, uint256.NewInt(5000)); !errors.Is(err, domain.ErrInsufficientLiquidity) {
		t.Errorf("over balance: expected ErrInsufficientLiquidity, got %v", err)
	}

	removed, err := rig.engine.RemoveLiquidity(ctx, ownerAddr, tokenA, uint256.NewInt(300))
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	if !removed.Eq(uint256.NewInt(300)) {
		t.Errorf("expected removed 300, got %s", removed.Dec())
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(700)) {
		t.Errorf("ledger: expected 700, got %s", got.Dec())
	}
}

func TestRemoveLiquidityPaused(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := rig.engine.RemoveLiquidity(ctx, ownerAddr, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrEnginePaused) {
		t.Errorf("partial removal: expected ErrEnginePaused, got %v", err)
	}
	if _, err := rig.engine.RemoveAllLiquidity(ctx, ownerAddr, tokenA); !errors.Is(err, domain.ErrEnginePaused) {
		t.Errorf("full removal: expected ErrEnginePaused, got %v", err)
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(1000)) {
		t.Errorf("ledger: expected 1000 untouched, got %s", got.Dec())
	}
}

func TestMutatingCallsResumeAfterUnpause(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.support(t, tokenB)
	rig.seedLiquidity(t, tokenA, 100_000)
	rig.seedLiquidity(t, tokenB, 100_000)
	rig.bank.Mint(tokenA, aliceAddr, uint256.NewInt(10_000))

	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrEnginePaused) {
		t.Fatalf("paused add: expected ErrEnginePaused, got %v", err)
	}
	if err := rig.engine.Unpause(ctx, ownerAddr); err != nil {
		t.Fatalf("unpause: %v", err)
	}

	// The same calls the pause rejected go through immediately.
	if err := rig.engine.AddLiquidity(ctx, aliceAddr, tokenA, uint256.NewInt(100)); err != nil {
		t.Errorf("add after unpause: %v", err)
	}
	if _, err := rig.engine.Swap(ctx, aliceAddr, tokenA, tokenB, uint256.NewInt(1000), uint256.NewInt(0)); err != nil {
		t.Errorf("swap after unpause: %v", err)
	}
	if _, err := rig.engine.RemoveLiquidity(ctx, ownerAddr, tokenB, uint256.NewInt(200)); err != nil {
		t.Errorf("remove after unpause: %v", err)
	}
}

func TestRemoveLiquidityResyncsFromCustody(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	// Out-of-band donation directly to the engine's custody account: the
	// ledger says 1000 but custody holds 1500. Removal rebases the ledger
	// on the custodied amount.
	rig.bank.Mint(tokenA, engineAddr, uint256.NewInt(500))

	if _, err := rig.engine.RemoveLiquidity(ctx, ownerAddr, tokenA, uint256.NewInt(200)); err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(1300)) {
		t.Errorf("ledger: expected rebased 1300, got %s", got.Dec())
	}
}

func TestRemoveAllLiquidityOpenToAnyCaller(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	// Unlike partial removal, full removal carries no owner check.
	removed, err := rig.engine.RemoveAllLiquidity(ctx, aliceAddr, tokenA)
	if err != nil {
		t.Fatalf("remove all liquidity: %v", err)
	}
	if !removed.Eq(uint256.NewInt(1000)) {
		t.Errorf("expected removed 1000, got %s", removed.Dec())
	}
	if got := rig.engine.TokenBalance(tokenA); !got.IsZero() {
		t.Errorf("ledger: expected zero, got %s", got.Dec())
	}
	aliceBal, _ := rig.bank.BalanceOf(ctx, tokenA, aliceAddr)
	if !aliceBal.Eq(uint256.NewInt(1000)) {
		t.Errorf("custody: expected alice to hold 1000, got %s", aliceBal.Dec())
	}

	// Second removal has nothing left.
	if _, err := rig.engine.RemoveAllLiquidity(ctx, aliceAddr, tokenA); !errors.Is(err, domain.ErrNothingToRemove) {
		t.Errorf("expected ErrNothingToRemove, got %v", err)
	}
	// Zeroing the ledger cannot record a price.
	if rig.sink.count(domain.EventZeroLiquidityPrice) == 0 {
		t.Error("expected a zero_liquidity_price event")
	}
}

func TestSyncBalance(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	if err := rig.engine.SyncBalance(ctx, tokenB); !errors.Is(err, domain.ErrUnsupportedToken) {
		t.Errorf("unsupported token: expected ErrUnsupportedToken, got %v", err)
	}

	rig.bank.Mint(tokenA, engineAddr, uint256.NewInt(250))
	events := len(rig.sink.topics())

	if err := rig.engine.SyncBalance(ctx, tokenA); err != nil {
		t.Fatalf("sync balance: %v", err)
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(1250)) {
		t.Errorf("ledger: expected 1250, got %s", got.Dec())
	}
	// Sync is silent: no events, no observations.
	if got := len(rig.sink.topics()); got != events {
		t.Errorf("expected no new events, got %d", got-events)
	}

	// Idempotent when nothing drifted.
	if err := rig.engine.SyncBalance(ctx, tokenA); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(1250)) {
		t.Errorf("ledger after second sync: expected 1250, got %s", got.Dec())
	}
}

func TestWithdrawToken(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.support(t, tokenA)
	rig.seedLiquidity(t, tokenA, 1000)

	if err := rig.engine.WithdrawToken(ctx, aliceAddr, tokenA, uint256.NewInt(100)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner: expected ErrUnauthorized, got %v", err)
	}
	if err := rig.engine.WithdrawToken(ctx, ownerAddr, tokenA, uint256.NewInt(5000)); !errors.Is(err, domain.ErrInsufficientLiquidity) {
		t.Errorf("over ledger: expected ErrInsufficientLiquidity, got %v", err)
	}

	// Withdraw works even while paused.
	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}

	observations := len(rig.engine.History(tokenA))
	if err := rig.engine.WithdrawToken(ctx, ownerAddr, tokenA, uint256.NewInt(400)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := rig.engine.TokenBalance(tokenA); !got.Eq(uint256.NewInt(600)) {
		t.Errorf("ledger: expected 600, got %s", got.Dec())
	}
	ownerBal, _ := rig.bank.BalanceOf(ctx, tokenA, ownerAddr)
	if !ownerBal.Eq(uint256.NewInt(400)) {
		t.Errorf("custody: expected owner to hold 400, got %s", ownerBal.Dec())
	}
	// The sweep records no observation.
	if got := len(rig.engine.History(tokenA)); got != observations {
		t.Errorf("expected no new observations, got %d", got-observations)
	}
}
