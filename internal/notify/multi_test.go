package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

func TestMultiNotifierFansOutAndJoinsErrors(t *testing.T) {
	first := &countingNotifier{err: errors.New("first down")}
	second := &countingNotifier{}
	var disabled *WebhookNotifier

	multi := NewMultiNotifier(first, nil, disabled, second, NewNoop(zerolog.Nop(), ""))
	if multi.Len() != 3 {
		t.Fatalf("expected 3 active sinks, got %d", multi.Len())
	}

	err := multi.Notify(context.Background(), testProduct, []transition.Notification{backInStock()})
	if err == nil || err.Error() != "first down" {
		t.Fatalf("expected joined error from first sink, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected every sink to be called once, got %d and %d", first.calls, second.calls)
	}
}
