package app

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// observationMirror is an event sink that copies the newest oracle
// observation for a token into the observation cache whenever an event
// touches that token. Relay-side consumers can then read the latest price
// without holding the engine lock.
//
// The history source is bound after engine construction because the engine
// itself needs the sink fan-out at creation time.
type observationMirror struct {
	cache   domain.ObservationCache
	logger  *slog.Logger
	history atomic.Pointer[func(common.Address) []domain.PriceObservation]
}

func newObservationMirror(cache domain.ObservationCache, logger *slog.Logger) *observationMirror {
	return &observationMirror{
		cache:  cache,
		logger: logger.With(slog.String("component", "observation_mirror")),
	}
}

// Bind attaches the oracle history source. Events arriving before Bind are
// ignored.
func (m *observationMirror) Bind(history func(common.Address) []domain.PriceObservation) {
	m.history.Store(&history)
}

// tokenDetailKeys are the event detail fields that name a token whose price
// may have moved. Swaps carry both legs; liquidity events carry one.
var tokenDetailKeys = []string{"token", "from_token", "to_token"}

// Publish mirrors the latest observation for every token the event names.
func (m *observationMirror) Publish(ctx context.Context, evt domain.Event) error {
	historyPtr := m.history.Load()
	if historyPtr == nil {
		return nil
	}

	for _, key := range tokenDetailKeys {
		raw, ok := evt.Detail[key].(string)
		if !ok || !common.IsHexAddress(raw) {
			continue
		}
		token := common.HexToAddress(raw)

		observations := (*historyPtr)(token)
		if len(observations) == 0 {
			continue
		}
		latest := observations[len(observations)-1]

		if err := m.cache.SetLatest(ctx, token, latest.Price, latest.Timestamp); err != nil {
			m.logger.WarnContext(ctx, "failed to mirror observation",
				slog.String("token", token.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

var _ domain.EventSink = (*observationMirror)(nil)
