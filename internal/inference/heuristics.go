package inference

import (
	"errors"
	"fmt"

	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/shopspring/decimal"
)

// Heuristics holds the data the stock rules and price extraction work from.
// Marker strings are matched case-insensitively, as substrings unless noted.
type Heuristics struct {
	// Fallback is the verdict when no rule matches.
	Fallback stock.State

	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	// PriceSelectors are tried in order after elements with a price-named attribute.
	PriceSelectors []string

	// ErrorPageMarkers are matched as whole words in the title and h1/h2.
	ErrorPageMarkers []string
	// ErrorPageTextMarkers are matched as whole words anywhere in visible text.
	ErrorPageTextMarkers []string
	OutOfStockMarkers    []string
	NotifyMeMarkers      []string
	AddToCartMarkers     []string
	UnavailableClasses   []string
}

// DefaultHeuristics returns the built-in marker set tuned for INR storefronts.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Fallback: stock.Unknown,
		PriceMin: decimal.NewFromInt(50),
		PriceMax: decimal.NewFromInt(50000),
		PriceSelectors: []string{
			`[itemprop*="price"]`,
			`[class*="price"]`,
			`[class*="amount"]`,
			`[class*="rupee"]`,
		},
		ErrorPageMarkers:     []string{"not found", "404", "error"},
		ErrorPageTextMarkers: []string{"not found", "404"},
		OutOfStockMarkers: []string{
			"out of stock",
			"currently unavailable",
			"sold out",
			"not available",
		},
		NotifyMeMarkers: []string{
			"notify me",
			"email me when available",
		},
		AddToCartMarkers: []string{
			"add to cart",
			"add to bag",
			"add to basket",
			"buy now",
		},
		UnavailableClasses: []string{"unavailable", "out-of-stock", "sold-out"},
	}
}

// Validate checks that the heuristics can drive an Engine.
func (h Heuristics) Validate() error {
	if !h.PriceMin.IsPositive() {
		return errors.New("price min must be greater than zero")
	}
	if h.PriceMax.LessThanOrEqual(h.PriceMin) {
		return fmt.Errorf("price max %s must exceed price min %s", h.PriceMax, h.PriceMin)
	}
	if _, err := stock.ParseState(string(h.Fallback)); err != nil {
		return fmt.Errorf("invalid fallback: %w", err)
	}
	return nil
}

func (h Heuristics) inWindow(value decimal.Decimal) bool {
	return value.GreaterThanOrEqual(h.PriceMin) && value.LessThanOrEqual(h.PriceMax)
}
