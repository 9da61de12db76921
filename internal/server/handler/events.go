package handler

import (
	"log/slog"
	"net/http"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// EventsHandler serves the notification log read endpoint.
type EventsHandler struct {
	store  domain.EventStore
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler with the given store and logger.
func NewEventsHandler(store domain.EventStore, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		store:  store,
		logger: logger,
	}
}

// listEventsResponse wraps the recent events response.
type listEventsResponse struct {
	Events []domain.Event `json:"events"`
}

// ListRecent returns the newest engine events, newest first.
// GET /api/events/recent?limit=50
func (h *EventsHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list events failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
