package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// callerHeader carries the caller identity for engine calls. The relay is a
// trusted front: it forwards the address as-is and lets the engine's owner
// check enforce authorization.
const callerHeader = "X-Caller-Address"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// decodeBody decodes the request body as JSON into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine error onto an HTTP status and sends it.
// Unknown errors are logged and returned as an opaque 500.
func writeEngineError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: engine call failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// errStatus maps domain errors to HTTP status codes: validation failures are
// 400, authorization 403, pause gating 503, busy-engine conflicts 409, and
// liquidity or market-protection rejections 422.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrAlreadySupported),
		errors.Is(err, domain.ErrNotSupported),
		errors.Is(err, domain.ErrUnsupportedToken),
		errors.Is(err, domain.ErrSameTokenSwap),
		errors.Is(err, domain.ErrFeeTooHigh):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEnginePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrReentrantCall),
		errors.Is(err, domain.ErrEngineActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientLiquidity),
		errors.Is(err, domain.ErrInsufficientSwapLiquidity),
		errors.Is(err, domain.ErrInsufficientRemainingLiquidity),
		errors.Is(err, domain.ErrNothingToRemove),
		errors.Is(err, domain.ErrExcessiveSwapImpact),
		errors.Is(err, domain.ErrSlippageExceeded),
		errors.Is(err, domain.ErrInsufficientUserBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// caller extracts the caller address from the X-Caller-Address header.
func caller(r *http.Request) (common.Address, error) {
	return parseAddress(r.Header.Get(callerHeader))
}

// parseAddress validates and parses a hex token or account address.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("address %q: %w", s, domain.ErrInvalidAddress)
	}
	return common.HexToAddress(s), nil
}

// parseAmount parses a decimal string into an unsigned 256-bit amount.
func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return amount, nil
}

// parseLimit extracts a limit query parameter. Defaults to 50, capped at 500.
func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
