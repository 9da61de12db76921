package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapEngine defines the methods that the swap handler requires from the
// swap engine.
type SwapEngine interface {
	Quote(ctx context.Context, fromToken, toToken common.Address, amountIn *uint256.Int) (*uint256.Int, error)
	Swap(ctx context.Context, caller, fromToken, toToken common.Address, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error)
}

// SwapHandler serves the quote and swap endpoints.
type SwapHandler struct {
	engine SwapEngine
	logger *slog.Logger
}

// NewSwapHandler creates a SwapHandler with the given engine and logger.
func NewSwapHandler(engine SwapEngine, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{
		engine: engine,
		logger: logger,
	}
}

// Quote returns the output amount a swap would produce at current reserves.
// It is a pure pricing preview: no guard checks beyond token validation.
// GET /api/quote?from=0x...&to=0x...&amount_in=...
func (h *SwapHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	fromToken, err := parseAddress(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	toToken, err := parseAddress(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	amountIn, err := parseAmount(q.Get("amount_in"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount_in: "+err.Error())
		return
	}

	amountOut, err := h.engine.Quote(r.Context(), fromToken, toToken, amountIn)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"from":       fromToken.Hex(),
		"to":         toToken.Hex(),
		"amount_in":  amountIn.Dec(),
		"amount_out": amountOut.Dec(),
	})
}

// swapRequest is the JSON body for a swap.
type swapRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
}

// Swap executes a token swap for the caller.
// POST /api/swap
func (h *SwapHandler) Swap(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req swapRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fromToken, err := parseAddress(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	toToken, err := parseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount_in: "+err.Error())
		return
	}
	minAmountOut, err := parseAmount(req.MinAmountOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "min_amount_out: "+err.Error())
		return
	}

	amountOut, err := h.engine.Swap(r.Context(), from, fromToken, toToken, amountIn, minAmountOut)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "swapped",
		"from":       fromToken.Hex(),
		"to":         toToken.Hex(),
		"amount_in":  amountIn.Dec(),
		"amount_out": amountOut.Dec(),
	})
}
