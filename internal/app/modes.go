package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/yurikoeth/TokenSwapV1/internal/pipeline"
	"github.com/yurikoeth/TokenSwapV1/internal/server"
	"github.com/yurikoeth/TokenSwapV1/internal/server/handler"
	"github.com/yurikoeth/TokenSwapV1/internal/server/ws"
)

// ServeMode runs the relay API in front of the engine, plus the archiver job
// when archival is enabled. It blocks until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.String("owner", deps.Engine.Owner().Hex()),
		slog.String("engine_account", deps.Engine.Account().Hex()),
	)

	// Lifecycle notices bypass the operator's event filter: knowing the
	// engine went up or down matters regardless of which topics they watch.
	if deps.Notifier != nil {
		if err := deps.Notifier.NotifyAll(ctx, "Engine Started",
			fmt.Sprintf("mode=%s\nowner=%s", a.cfg.Mode, deps.Engine.Owner().Hex()),
		); err != nil {
			a.logger.WarnContext(ctx, "startup notice failed", slog.String("error", err.Error()))
		}
		defer func() {
			if err := deps.Notifier.NotifyAll(context.Background(), "Engine Stopped",
				"mode="+a.cfg.Mode,
			); err != nil {
				a.logger.Warn("shutdown notice failed", slog.String("error", err.Error()))
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		archiveJob := pipeline.NewArchiver(
			deps.Archiver,
			a.cfg.Archive.RetentionDays,
			a.cfg.Archive.Interval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return archiveJob.RunLoop(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// DemoMode pre-funds an in-memory custody with the configured demo tokens,
// registers them, seeds initial liquidity, and then serves. It stands in for
// a real deployment when no chain or funded accounts exist.
func (a *App) DemoMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting demo mode",
		slog.Int("tokens", len(a.cfg.Demo.Tokens)),
	)

	owner := deps.Engine.Owner()
	for _, tc := range a.cfg.Demo.Tokens {
		token := common.HexToAddress(tc.Address)

		mint, err := parseDemoAmount(tc.MintToOwner)
		if err != nil {
			return fmt.Errorf("demo mode: token %s mint amount: %w", tc.Symbol, err)
		}
		seed, err := parseDemoAmount(tc.SeedLiquidity)
		if err != nil {
			return fmt.Errorf("demo mode: token %s seed amount: %w", tc.Symbol, err)
		}

		deps.Bank.Mint(token, owner, mint)

		if err := deps.Engine.AddSupportedToken(ctx, owner, token); err != nil {
			return fmt.Errorf("demo mode: register token %s: %w", tc.Symbol, err)
		}
		if !seed.IsZero() {
			if err := deps.Engine.AddLiquidity(ctx, owner, token, seed); err != nil {
				return fmt.Errorf("demo mode: seed liquidity %s: %w", tc.Symbol, err)
			}
		}

		a.logger.InfoContext(ctx, "demo token seeded",
			slog.String("symbol", tc.Symbol),
			slog.String("address", token.Hex()),
			slog.String("minted", mint.Dec()),
			slog.String("liquidity", seed.Dec()),
		)
	}

	return a.ServeMode(ctx, deps)
}

// latestPriceReader exposes the observation cache to the token handler when
// Redis is wired, nil otherwise so the handler falls back to oracle history.
func latestPriceReader(deps *Dependencies) handler.LatestPriceReader {
	if deps.ObservationCache == nil {
		return nil
	}
	return deps.ObservationCache
}

// parseDemoAmount parses a decimal amount from demo config; empty means zero.
func parseDemoAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	return uint256.FromDecimal(s)
}

// startHTTPServer builds the relay handlers, the WebSocket hub (when Redis is
// available), and runs the HTTP server under the errgroup with graceful
// shutdown on context cancellation.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(deps.Engine, a.logger),
		Tokens:    handler.NewTokenHandler(deps.Engine, latestPriceReader(deps), a.logger),
		Liquidity: handler.NewLiquidityHandler(deps.Engine, a.logger),
		Swap:      handler.NewSwapHandler(deps.Engine, a.logger),
		Admin:     handler.NewAdminHandler(deps.Engine, a.logger),
		Events:    handler.NewEventsHandler(deps.EventStore, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
