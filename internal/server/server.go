// Package server exposes the swap engine over a JSON HTTP API plus a
// WebSocket event stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
	"github.com/yurikoeth/TokenSwapV1/internal/server/handler"
	"github.com/yurikoeth/TokenSwapV1/internal/server/middleware"
	"github.com/yurikoeth/TokenSwapV1/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKey          string // if empty, admin authentication is disabled
	RateLimit       int    // requests per window per client; 0 disables
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Tokens    *handler.TokenHandler
	Liquidity *handler.LiquidityHandler
	Swap      *handler.SwapHandler
	Admin     *handler.AdminHandler
	Events    *handler.EventsHandler
}

// Server is the HTTP + WebSocket relay in front of the swap engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, rate limiting, auth) and attaches
// the WebSocket hub. The limiter may be nil, in which case rate limiting is
// disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Token registry and per-token reads.
	mux.HandleFunc("GET /api/tokens", handlers.Tokens.ListTokens)
	mux.HandleFunc("POST /api/tokens", handlers.Tokens.AddToken)
	mux.HandleFunc("DELETE /api/tokens/{address}", handlers.Tokens.RemoveToken)
	mux.HandleFunc("GET /api/tokens/{address}/balance", handlers.Tokens.GetBalance)
	mux.HandleFunc("GET /api/tokens/{address}/twap", handlers.Tokens.GetTWAP)
	mux.HandleFunc("GET /api/tokens/{address}/price", handlers.Tokens.GetLatestPrice)
	mux.HandleFunc("GET /api/tokens/{address}/history", handlers.Tokens.GetHistory)

	// Liquidity ledger.
	mux.HandleFunc("POST /api/liquidity", handlers.Liquidity.AddLiquidity)
	mux.HandleFunc("DELETE /api/liquidity", handlers.Liquidity.RemoveLiquidity)
	mux.HandleFunc("POST /api/liquidity/sync", handlers.Liquidity.SyncBalance)

	// Pricing and swaps.
	mux.HandleFunc("GET /api/quote", handlers.Swap.Quote)
	mux.HandleFunc("POST /api/swap", handlers.Swap.Swap)

	// Fee.
	mux.HandleFunc("GET /api/fee", handlers.Admin.GetFee)
	mux.HandleFunc("PUT /api/fee", handlers.Admin.SetFee)

	// Engine administration.
	mux.HandleFunc("POST /api/admin/pause", handlers.Admin.Pause)
	mux.HandleFunc("POST /api/admin/unpause", handlers.Admin.Unpause)
	mux.HandleFunc("POST /api/admin/transfer-ownership", handlers.Admin.TransferOwnership)
	mux.HandleFunc("POST /api/admin/withdraw", handlers.Admin.Withdraw)

	// Notification log.
	mux.HandleFunc("GET /api/events/recent", handlers.Events.ListRecent)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply per-client rate limiting when a limiter is available.
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
