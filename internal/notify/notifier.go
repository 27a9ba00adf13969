package notify

import (
	"context"

	"github.com/nholik/stock-sentinel/internal/transition"
)

// Notifier delivers stock notifications for a product to external systems.
type Notifier interface {
	Notify(ctx context.Context, product string, notes []transition.Notification) error
}
