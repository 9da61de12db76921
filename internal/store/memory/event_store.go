// Package memory provides in-process store implementations used in demo mode,
// where the engine runs without external infrastructure.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// defaultRetain bounds the in-memory log so a long-running demo does not grow
// without limit.
const defaultRetain = 10_000

// EventStore implements domain.EventStore with an in-memory ring of events.
type EventStore struct {
	mu     sync.RWMutex
	events []domain.Event
	retain int
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{retain: defaultRetain}
}

// Append records the event, evicting the oldest entry once the retention
// limit is reached.
func (s *EventStore) Append(_ context.Context, evt domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, evt)
	if len(s.events) > s.retain {
		s.events = s.events[len(s.events)-s.retain:]
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *EventStore) ListRecent(_ context.Context, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]domain.Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// ListBefore returns all events created before the given time, oldest first.
func (s *EventStore) ListBefore(_ context.Context, before time.Time) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for _, evt := range s.events {
		if evt.CreatedAt.Before(before) {
			out = append(out, evt)
		}
	}
	return out, nil
}

// DeleteBefore removes all events created before the given time and returns
// the number removed.
func (s *EventStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, evt := range s.events {
		if evt.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, evt)
	}
	s.events = kept
	return removed, nil
}

var _ domain.EventStore = (*EventStore)(nil)
