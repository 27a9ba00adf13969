package notify

import (
	"context"
	"errors"

	"github.com/nholik/stock-sentinel/internal/transition"
)

// MultiNotifier fans out notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that dispatches to all provided notifiers.
// Nil entries, including typed nil pointers from disabled sinks, are skipped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		if webhook, ok := notifier.(*WebhookNotifier); ok && webhook == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Len returns the number of active sinks.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify implements Notifier. Every sink is attempted; failures are joined.
func (m *MultiNotifier) Notify(ctx context.Context, product string, notes []transition.Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, product, notes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
