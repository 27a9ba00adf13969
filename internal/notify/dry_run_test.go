package notify

import (
	"context"
	"testing"

	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) Notify(context.Context, string, []transition.Notification) error {
	n.calls++
	return n.err
}

func TestDryRunNotifierSuppressesDelivery(t *testing.T) {
	inner := &countingNotifier{}
	dryRun := NewDryRunNotifier(zerolog.Nop(), inner)

	if err := dryRun.Notify(context.Background(), testProduct, []transition.Notification{backInStock()}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("expected no notifier calls, got %d", inner.calls)
	}
}
