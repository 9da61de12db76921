package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// LogSink writes every event to the structured log. It is the sink of last
// resort: it never fails, so the engine always has at least one observer.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "event_log"))}
}

// Publish logs the event at info level with its detail fields flattened.
func (s *LogSink) Publish(ctx context.Context, event domain.Event) error {
	attrs := make([]any, 0, len(event.Detail)+2)
	attrs = append(attrs,
		slog.String("event_id", event.ID.String()),
		slog.String("topic", event.Topic),
	)
	for k, v := range event.Detail {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.InfoContext(ctx, "engine event", attrs...)
	return nil
}

// StoreSink persists events to a domain.EventStore (Postgres in serve mode).
type StoreSink struct {
	store domain.EventStore
}

// NewStoreSink creates a StoreSink backed by the given store.
func NewStoreSink(store domain.EventStore) *StoreSink {
	return &StoreSink{store: store}
}

// Publish appends the event to the store.
func (s *StoreSink) Publish(ctx context.Context, event domain.Event) error {
	if err := s.store.Append(ctx, event); err != nil {
		return fmt.Errorf("store sink: append: %w", err)
	}
	return nil
}

// BusSink forwards events to a domain.SignalBus so websocket clients and other
// processes receive them in real time. Every event goes to the "events"
// firehose channel and to a per-topic "events:<topic>" channel.
type BusSink struct {
	bus domain.SignalBus
}

// NewBusSink creates a BusSink backed by the given bus.
func NewBusSink(bus domain.SignalBus) *BusSink {
	return &BusSink{bus: bus}
}

// Publish pushes the JSON-encoded event onto the firehose and per-topic
// channels.
func (s *BusSink) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("bus sink: marshal event: %w", err)
	}
	if err := s.bus.Publish(ctx, "events", payload); err != nil {
		return fmt.Errorf("bus sink: publish firehose: %w", err)
	}
	if err := s.bus.Publish(ctx, "events:"+event.Topic, payload); err != nil {
		return fmt.Errorf("bus sink: publish topic: %w", err)
	}
	return nil
}

// NotifierSink turns engine events into operator notifications. The Notifier's
// own event filter decides which topics actually go out.
type NotifierSink struct {
	notifier *Notifier
}

// NewNotifierSink creates a NotifierSink delivering through the given Notifier.
func NewNotifierSink(notifier *Notifier) *NotifierSink {
	return &NotifierSink{notifier: notifier}
}

// Publish formats the event as a short human-readable message and hands it to
// the notifier.
func (s *NotifierSink) Publish(ctx context.Context, event domain.Event) error {
	title := eventTitle(event.Topic)
	return s.notifier.Notify(ctx, event.Topic, title, formatDetail(event.Detail))
}

func eventTitle(topic string) string {
	switch topic {
	case domain.EventTokenSwapped:
		return "Token Swapped"
	case domain.EventLiquidityAdded:
		return "Liquidity Added"
	case domain.EventLiquidityRemoved:
		return "Liquidity Removed"
	case domain.EventFeeUpdated:
		return "Fee Updated"
	case domain.EventZeroLiquidityPrice:
		return "Zero Liquidity"
	case domain.EventSupportedTokenAdded:
		return "Token Listed"
	default:
		return topic
	}
}

func formatDetail(detail map[string]any) string {
	if len(detail) == 0 {
		return "(no detail)"
	}
	parts := make([]string, 0, len(detail))
	for k, v := range detail {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, "\n")
}

// FanoutSink distributes each event to every child sink. Child failures are
// logged and do not stop delivery to the remaining sinks; the engine treats
// event delivery as best effort.
type FanoutSink struct {
	sinks  []domain.EventSink
	logger *slog.Logger
}

// NewFanoutSink creates a FanoutSink over the given child sinks.
func NewFanoutSink(logger *slog.Logger, sinks ...domain.EventSink) *FanoutSink {
	return &FanoutSink{
		sinks:  sinks,
		logger: logger.With(slog.String("component", "event_fanout")),
	}
}

// Publish delivers the event to every child sink, returning nil even when some
// children fail.
func (s *FanoutSink) Publish(ctx context.Context, event domain.Event) error {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "event sink failed",
				slog.String("topic", event.Topic),
				slog.String("event_id", event.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

var (
	_ domain.EventSink = (*LogSink)(nil)
	_ domain.EventSink = (*StoreSink)(nil)
	_ domain.EventSink = (*BusSink)(nil)
	_ domain.EventSink = (*NotifierSink)(nil)
	_ domain.EventSink = (*FanoutSink)(nil)
)
