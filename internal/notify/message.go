package notify

import (
	"fmt"

	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/shopspring/decimal"
)

// FormatMessage renders a notification as plain text followed by the product URL.
func FormatMessage(product string, note transition.Notification) string {
	var headline string
	switch note.Kind {
	case transition.KindInitialStatus:
		headline = fmt.Sprintf("ℹ️ Initial status: %s%s", note.State.Label(), priceSuffix(note.Price))
	case transition.KindBackInStock:
		headline = "🟢 Product is BACK IN STOCK!"
		if note.Price.Valid {
			headline += " Price " + stock.FormatPrice(note.Price)
		}
	case transition.KindOutOfStock:
		headline = "🔴 Product is OUT OF STOCK again."
	case transition.KindPriceChange:
		headline = formatPriceChange(note)
	case transition.KindFailureWarning:
		headline = fmt.Sprintf("⚠️ Stock check failing: %d consecutive cycles without a usable signal", note.ConsecutiveFailures)
	case transition.KindFailureCritical:
		headline = fmt.Sprintf("🚨 CRITICAL: stock check failing: %d consecutive cycles without a usable signal", note.ConsecutiveFailures)
	case transition.KindHeartbeat:
		headline = fmt.Sprintf("💓 Still %s%s", note.State.Label(), priceSuffix(note.Price))
	default:
		headline = fmt.Sprintf("Stock update: %s", note.State.Label())
	}

	if product == "" {
		return headline
	}
	return headline + "\n" + product
}

// Title returns a short label for a notification kind.
func Title(kind transition.Kind) string {
	switch kind {
	case transition.KindInitialStatus:
		return "Initial status"
	case transition.KindBackInStock:
		return "Back in stock"
	case transition.KindOutOfStock:
		return "Out of stock"
	case transition.KindPriceChange:
		return "Price change"
	case transition.KindFailureWarning:
		return "Stock check warning"
	case transition.KindFailureCritical:
		return "Stock check critical"
	case transition.KindHeartbeat:
		return "Heartbeat"
	default:
		return "Stock update"
	}
}

func formatPriceChange(note transition.Notification) string {
	icon, direction := "📉", "decreased"
	if note.PriceIncreased() {
		icon, direction = "📈", "increased"
	}
	return fmt.Sprintf("%s Price %s by %s: %s → %s",
		icon,
		direction,
		stock.FormatPrice(decimal.NewNullDecimal(note.Delta.Abs())),
		stock.FormatPrice(note.PreviousPrice),
		stock.FormatPrice(note.Price),
	)
}

func priceSuffix(price decimal.NullDecimal) string {
	if !price.Valid {
		return ""
	}
	return ", price " + stock.FormatPrice(price)
}
