package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/custody"
	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

var (
	ownerAddr  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	engineAddr = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	aliceAddr  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenA     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// captureSink records published events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Publish(_ context.Context, evt domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *captureSink) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, evt := range s.events {
		out = append(out, evt.Topic)
	}
	return out
}

func (s *captureSink) count(topic string) int {
	n := 0
	for _, t := range s.topics() {
		if t == topic {
			n++
		}
	}
	return n
}

// testRig bundles an engine with its bank and event capture.
type testRig struct {
	engine *Engine
	bank   *custody.Bank
	sink   *captureSink
	now    time.Time
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	rig := &testRig{
		bank: custody.NewBank(),
		sink: &captureSink{},
		now:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	eng, err := New(Config{
		Account:      engineAddr,
		Owner:        ownerAddr,
		FeeNumerator: 3,
		Clock:        func() time.Time { return rig.now },
	}, rig.bank, rig.sink, testLogger())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	rig.engine = eng
	return rig
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// support registers a token as the owner, failing the test on error.
func (r *testRig) support(t *testing.T, token common.Address) {
	t.Helper()
	if err := r.engine.AddSupportedToken(context.Background(), ownerAddr, token); err != nil {
		t.Fatalf("add supported token: %v", err)
	}
}

// fund mints to an account and deposits liquidity via the owner.
func (r *testRig) seedLiquidity(t *testing.T, token common.Address, amount uint64) {
	t.Helper()
	r.bank.Mint(token, ownerAddr, uint256.NewInt(amount))
	if err := r.engine.AddLiquidity(context.Background(), ownerAddr, token, uint256.NewInt(amount)); err != nil {
		t.Fatalf("seed liquidity: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	bank := custody.NewBank()

	if _, err := New(Config{Owner: common.Address{}}, bank, nil, testLogger()); !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("missing owner: expected ErrInvalidAddress, got %v", err)
	}
	if _, err := New(Config{Owner: ownerAddr, FeeNumerator: 51}, bank, nil, testLogger()); !errors.Is(err, domain.ErrFeeTooHigh) {
		t.Errorf("fee above cap: expected ErrFeeTooHigh, got %v", err)
	}
	if _, err := New(Config{Owner: ownerAddr}, nil, nil, testLogger()); err == nil {
		t.Error("missing custody: expected error")
	}
}

func TestSetFee(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	if err := rig.engine.SetFee(ctx, aliceAddr, 10); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner: expected ErrUnauthorized, got %v", err)
	}
	if err := rig.engine.SetFee(ctx, ownerAddr, 51); !errors.Is(err, domain.ErrFeeTooHigh) {
		t.Errorf("above cap: expected ErrFeeTooHigh, got %v", err)
	}
	if err := rig.engine.SetFee(ctx, ownerAddr, 50); err != nil {
		t.Fatalf("set fee at cap: %v", err)
	}
	if got := rig.engine.Fee(); got != 50 {
		t.Errorf("expected fee 50, got %d", got)
	}
	if rig.sink.count(domain.EventFeeUpdated) != 1 {
		t.Error("expected one fee_updated event")
	}
}

func TestPauseUnpause(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	if err := rig.engine.Pause(ctx, aliceAddr); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner pause: expected ErrUnauthorized, got %v", err)
	}
	if err := rig.engine.Unpause(ctx, ownerAddr); !errors.Is(err, domain.ErrEngineActive) {
		t.Errorf("unpause while active: expected ErrEngineActive, got %v", err)
	}

	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !rig.engine.IsPaused() {
		t.Fatal("expected engine to report paused")
	}
	if err := rig.engine.Pause(ctx, ownerAddr); !errors.Is(err, domain.ErrEnginePaused) {
		t.Errorf("double pause: expected ErrEnginePaused, got %v", err)
	}

	if err := rig.engine.Unpause(ctx, ownerAddr); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if rig.engine.IsPaused() {
		t.Fatal("expected engine to report active")
	}
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	if err := rig.engine.TransferOwnership(ctx, aliceAddr, aliceAddr); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner: expected ErrUnauthorized, got %v", err)
	}
	if err := rig.engine.TransferOwnership(ctx, ownerAddr, common.Address{}); !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("zero address: expected ErrInvalidAddress, got %v", err)
	}

	if err := rig.engine.TransferOwnership(ctx, ownerAddr, aliceAddr); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if got := rig.engine.Owner(); got != aliceAddr {
		t.Errorf("expected owner %s, got %s", aliceAddr.Hex(), got.Hex())
	}
	// The previous owner lost its privileges.
	if err := rig.engine.Pause(ctx, ownerAddr); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("old owner pause: expected ErrUnauthorized, got %v", err)
	}
}

func TestTokenRegistry(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	if err := rig.engine.AddSupportedToken(ctx, aliceAddr, tokenA); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-owner add: expected ErrUnauthorized, got %v", err)
	}
	if err := rig.engine.AddSupportedToken(ctx, ownerAddr, common.Address{}); !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("zero token: expected ErrInvalidAddress, got %v", err)
	}

	rig.support(t, tokenA)
	if !rig.engine.IsSupported(tokenA) {
		t.Fatal("expected tokenA supported")
	}
	if err := rig.engine.AddSupportedToken(ctx, ownerAddr, tokenA); !errors.Is(err, domain.ErrAlreadySupported) {
		t.Errorf("duplicate add: expected ErrAlreadySupported, got %v", err)
	}
	if rig.sink.count(domain.EventSupportedTokenAdded) != 1 {
		t.Error("expected one supported_token_added event")
	}

	if err := rig.engine.RemoveSupportedToken(ctx, ownerAddr, tokenB); !errors.Is(err, domain.ErrNotSupported) {
		t.Errorf("remove unknown: expected ErrNotSupported, got %v", err)
	}
	if err := rig.engine.RemoveSupportedToken(ctx, ownerAddr, tokenA); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	if rig.engine.IsSupported(tokenA) {
		t.Fatal("expected tokenA no longer supported")
	}
	if len(rig.engine.SupportedTokens()) != 0 {
		t.Fatal("expected empty whitelist")
	}
}

func TestRegistrySurvivesPause(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	if err := rig.engine.Pause(ctx, ownerAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	// Whitelist management is not gated by pause.
	if err := rig.engine.AddSupportedToken(ctx, ownerAddr, tokenA); err != nil {
		t.Fatalf("add token while paused: %v", err)
	}
}
