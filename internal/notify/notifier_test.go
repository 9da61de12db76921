package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type stubSender struct {
	name   string
	err    error
	titles []string
}

func (s *stubSender) Send(_ context.Context, title, _ string) error {
	s.titles = append(s.titles, title)
	return s.err
}

func (s *stubSender) Name() string { return s.name }

func notifyTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEventType(t *testing.T) {
	sender := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{sender}, []string{"token_swapped"}, notifyTestLogger())
	ctx := context.Background()

	if err := n.Notify(ctx, "liquidity_added", "Liquidity Added", "detail"); err != nil {
		t.Fatalf("filtered notify: %v", err)
	}
	if len(sender.titles) != 0 {
		t.Fatalf("expected filtered event to be dropped, sent %v", sender.titles)
	}

	if err := n.Notify(ctx, "token_swapped", "Token Swapped", "detail"); err != nil {
		t.Fatalf("allowed notify: %v", err)
	}
	if len(sender.titles) != 1 || sender.titles[0] != "Token Swapped" {
		t.Fatalf("expected one allowed delivery, got %v", sender.titles)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{sender}, nil, notifyTestLogger())

	if err := n.Notify(context.Background(), "anything", "Anything", "detail"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatalf("expected delivery with empty filter, got %v", sender.titles)
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	sender := &stubSender{name: "stub"}
	n := NewNotifier([]Sender{sender}, []string{"token_swapped"}, notifyTestLogger())

	// Lifecycle notices are not in the allowed set but must go out anyway.
	if err := n.NotifyAll(context.Background(), "Engine Started", "mode=serve"); err != nil {
		t.Fatalf("notify all: %v", err)
	}
	if len(sender.titles) != 1 || sender.titles[0] != "Engine Started" {
		t.Fatalf("expected unfiltered delivery, got %v", sender.titles)
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	failing := &stubSender{name: "telegram", err: errors.New("boom")}
	working := &stubSender{name: "discord"}
	n := NewNotifier([]Sender{failing, working}, nil, notifyTestLogger())

	err := n.NotifyAll(context.Background(), "Fee Updated", "fee=5")
	if err == nil || !strings.Contains(err.Error(), "telegram") {
		t.Fatalf("expected combined error naming the failed sender, got %v", err)
	}
	if len(working.titles) != 1 {
		t.Errorf("expected delivery to reach the remaining sender, got %v", working.titles)
	}
}
