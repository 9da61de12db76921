package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AdminEngine defines the methods that the admin handler requires from the
// swap engine.
type AdminEngine interface {
	Fee() uint64
	SetFee(ctx context.Context, caller common.Address, numerator uint64) error
	Pause(ctx context.Context, caller common.Address) error
	Unpause(ctx context.Context, caller common.Address) error
	TransferOwnership(ctx context.Context, caller, newOwner common.Address) error
	WithdrawToken(ctx context.Context, caller, token common.Address, amount *uint256.Int) error
}

// AdminHandler serves owner-gated engine administration endpoints.
type AdminHandler struct {
	engine AdminEngine
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler with the given engine and logger.
func NewAdminHandler(engine AdminEngine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		engine: engine,
		logger: logger,
	}
}

// GetFee returns the current swap fee numerator (parts per thousand).
// GET /api/fee
func (h *AdminHandler) GetFee(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"fee_numerator": h.engine.Fee()})
}

// setFeeRequest is the JSON body for a fee update.
type setFeeRequest struct {
	FeeNumerator uint64 `json:"fee_numerator"`
}

// SetFee updates the swap fee numerator. Owner only.
// PUT /api/fee
func (h *AdminHandler) SetFee(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req setFeeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.engine.SetFee(r.Context(), from, req.FeeNumerator); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "updated",
		"fee_numerator": req.FeeNumerator,
	})
}

// Pause halts all mutating engine operations. Owner only.
// POST /api/admin/pause
func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	if err := h.engine.Pause(r.Context(), from); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// Unpause resumes mutating engine operations. Owner only.
// POST /api/admin/unpause
func (h *AdminHandler) Unpause(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	if err := h.engine.Unpause(r.Context(), from); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// transferOwnershipRequest is the JSON body for an ownership transfer.
type transferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// TransferOwnership hands engine ownership to a new address. Owner only.
// POST /api/admin/transfer-ownership
func (h *AdminHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req transferOwnershipRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	newOwner, err := parseAddress(req.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.TransferOwnership(r.Context(), from, newOwner); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "transferred",
		"owner":  newOwner.Hex(),
	})
}

// withdrawRequest is the JSON body for an emergency withdrawal.
type withdrawRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// Withdraw moves tokens from the engine to the owner, bypassing the pause
// gate. Owner only.
// POST /api/admin/withdraw
func (h *AdminHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing "+callerHeader+" header")
		return
	}

	var req withdrawRequest
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

	if err := h.engine.WithdrawToken(r.Context(), from, token, amount); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "withdrawn",
		"token":  token.Hex(),
		"amount": amount.Dec(),
	})
}
