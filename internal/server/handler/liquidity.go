package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LiquidityEngine defines the methods that the liquidity handler requires
// from the swap engine.
type LiquidityEngine interface {
	AddLiquidity(ctx context.Context, caller, token common.Address, amount *uint256.Int) error
	RemoveLiquidity(ctx context.Context, caller, token common.Address, amount *uint256.Int) (*uint256.Int, error)
	RemoveAllLiquidity(ctx context.Context, caller, token common.Address) (*uint256.Int, error)
	SyncBalance(ctx context.Context, token common.Address) error
}

// LiquidityHandler serves the liquidity ledger endpoints.
type LiquidityHandler struct {
	engine LiquidityEngine
	logger *slog.Logger
}

// NewLiquidityHandler creates a LiquidityHandler with the given engine and
// logger.
func NewLiquidityHandler(engine LiquidityEngine, logger *slog.Logger) *LiquidityHandler {
	return &LiquidityHandler{
		engine: engine,
		logger: logger,
	}
}

// liquidityRequest is the JSON body for add and remove operations. Amount is
// a decimal string; for removal, omitting it (or setting all=true) removes
// the caller's full position.
type liquidityRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount,omitempty"`
	All    bool   `json:"all,omitempty"`
}

// AddLiquidity deposits tokens from the caller into the engine.
// POST /api/liquidity
func (h *LiquidityHandler) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req liquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	token, err := parseAddress(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.AddLiquidity(r.Context(), from, token, amount); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "added",
		"token":  token.Hex(),
		"amount": amount.Dec(),
	})
}

// RemoveLiquidity withdraws tokens from the engine to the caller. Without an
// amount (or with all=true) the entire position is removed.
// DELETE /api/liquidity
func (h *LiquidityHandler) RemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req liquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	token, err := parseAddress(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var removed *uint256.Int
	if req.All || req.Amount == "" {
		removed, err = h.engine.RemoveAllLiquidity(r.Context(), from, token)
	} else {
		var amount *uint256.Int
		amount, err = parseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		removed, err = h.engine.RemoveLiquidity(r.Context(), from, token, amount)
	}
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "removed",
		"token":  token.Hex(),
		"amount": removed.Dec(),
	})
}

// syncRequest is the JSON body for a ledger sync.
type syncRequest struct {
	Token string `json:"token"`
}

// SyncBalance reconciles the ledger entry for a token with the engine's
// actual custody balance.
// POST /api/liquidity/sync
func (h *LiquidityHandler) SyncBalance(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	token, err := parseAddress(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.SyncBalance(r.Context(), token); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "synced",
		"token":  token.Hex(),
	})
}
