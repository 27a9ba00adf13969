package notify

import (
	"context"

	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// DryRunNotifier logs notifications without sending them.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, product string, notes []transition.Notification) error {
	for _, note := range notes {
		n.logger.Info().
			Str("product", product).
			Str("kind", string(note.Kind)).
			Str("severity", string(note.Severity)).
			Str("previous_state", note.PreviousState.String()).
			Str("current_state", note.State.String()).
			Str("price", stock.FormatPrice(note.Price)).
			Str("message", FormatMessage(product, note)).
			Msg("[DRY-RUN] Would notify")
	}
	return nil
}
