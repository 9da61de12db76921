package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// TokenEngine defines the methods that the token handler requires from the
// swap engine.
type TokenEngine interface {
	SupportedTokens() []common.Address
	AddSupportedToken(ctx context.Context, caller, token common.Address) error
	RemoveSupportedToken(ctx context.Context, caller, token common.Address) error
	TokenBalance(token common.Address) *uint256.Int
	TWAP(token common.Address) (*uint256.Int, bool, error)
	History(token common.Address) []domain.PriceObservation
}

// LatestPriceReader serves the most recent cached observation for a token.
// It returns domain.ErrNotFound when nothing has been cached yet.
type LatestPriceReader interface {
	GetLatest(ctx context.Context, token common.Address) (*uint256.Int, time.Time, error)
}

// TokenHandler serves the token registry and per-token read endpoints.
type TokenHandler struct {
	engine TokenEngine
	latest LatestPriceReader // may be nil; oracle history is the fallback
	logger *slog.Logger
}

// NewTokenHandler creates a TokenHandler with the given engine, optional
// latest-price cache, and logger.
func NewTokenHandler(engine TokenEngine, latest LatestPriceReader, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		engine: engine,
		latest: latest,
		logger: logger,
	}
}

// listTokensResponse wraps the token list response.
type listTokensResponse struct {
	Tokens []string `json:"tokens"`
}

// ListTokens returns all whitelisted token addresses.
// GET /api/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := h.engine.SupportedTokens()
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Hex())
	}
	writeJSON(w, http.StatusOK, listTokensResponse{Tokens: out})
}

// addTokenRequest is the JSON body for whitelisting a token.
type addTokenRequest struct {
	Address string `json:"address"`
}

// AddToken whitelists a new token address. Owner only.
// POST /api/tokens
func (h *TokenHandler) AddToken(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req addTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	token, err := parseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.AddSupportedToken(r.Context(), from, token); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status":  "added",
		"address": token.Hex(),
	})
}

// RemoveToken removes a token from the whitelist. Owner only.
// DELETE /api/tokens/{address}
func (h *TokenHandler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	token, err := parseAddress(pathParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.RemoveSupportedToken(r.Context(), from, token); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "removed",
		"address": token.Hex(),
	})
}

// GetBalance returns the ledger balance for a token.
// GET /api/tokens/{address}/balance
func (h *TokenHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress(pathParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": token.Hex(),
		"balance": h.engine.TokenBalance(token).Dec(),
	})
}

// twapResponse carries a TWAP reading. Valid is false when the token has too
// little history for a meaningful average.
type twapResponse struct {
	Address string `json:"address"`
	Price   string `json:"price"`
	Valid   bool   `json:"valid"`
}

// GetTWAP returns the 24-hour time-weighted average price for a token.
// GET /api/tokens/{address}/twap
func (h *TokenHandler) GetTWAP(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress(pathParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price, ok, err := h.engine.TWAP(token)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	resp := twapResponse{Address: token.Hex(), Valid: ok, Price: "0"}
	if ok {
		resp.Price = price.Dec()
	}
	writeJSON(w, http.StatusOK, resp)
}

// latestPriceResponse carries the most recent recorded price for a token.
// Source reports where the reading came from: "cache" or "oracle".
type latestPriceResponse struct {
	Address   string `json:"address"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// GetLatestPrice returns the newest recorded price observation. It serves
// from the observation cache when one is wired and populated, falling back to
// the oracle history otherwise. The cache is never the source of truth, so a
// cache failure degrades to the fallback rather than erroring.
// GET /api/tokens/{address}/price
func (h *TokenHandler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress(pathParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.latest != nil {
		price, ts, err := h.latest.GetLatest(r.Context(), token)
		if err == nil {
			writeJSON(w, http.StatusOK, latestPriceResponse{
				Address:   token.Hex(),
				Price:     price.Dec(),
				Timestamp: ts.UTC().Format(time.RFC3339),
				Source:    "cache",
			})
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.WarnContext(r.Context(), "latest price cache read failed",
				slog.String("token", token.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}

	history := h.engine.History(token)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no price recorded for "+token.Hex())
		return
	}
	obs := history[len(history)-1]
	writeJSON(w, http.StatusOK, latestPriceResponse{
		Address:   token.Hex(),
		Price:     obs.Price.Dec(),
		Timestamp: obs.Timestamp.UTC().Format(time.RFC3339),
		Source:    "oracle",
	})
}

// historyEntry is one price observation in the history response.
type historyEntry struct {
	Timestamp string `json:"timestamp"`
	Price     string `json:"price"`
}

// GetHistory returns the bounded price observation history for a token,
// oldest first.
// GET /api/tokens/{address}/history
func (h *TokenHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	token, err := parseAddress(pathParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history := h.engine.History(token)
	entries := make([]historyEntry, 0, len(history))
	for _, obs := range history {
		entries = append(entries, historyEntry{
			Timestamp: obs.Timestamp.UTC().Format(time.RFC3339),
			Price:     obs.Price.Dec(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address":      token.Hex(),
		"observations": entries,
	})
}
