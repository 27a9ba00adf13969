package inference

import (
	"regexp"
	"strings"

	"github.com/nholik/stock-sentinel/internal/stock"
)

// Rule names, in evaluation order.
const (
	RuleErrorPage            = "error_page"
	RuleNegativeMarker       = "negative_marker"
	RuleNotifyMe             = "notify_me"
	RuleAddToCartWithPrice   = "add_to_cart_with_price"
	RulePriceWithoutNegative = "price_without_negative_text"
	RuleFallback             = "fallback"
)

// Rule is a named predicate over a parsed page. The first matching rule
// decides the stock state.
type Rule struct {
	Name    string
	Verdict stock.State
	Match   func(*Page) bool
}

func buildRules(h Heuristics) []Rule {
	errorPage := wordPatterns(h.ErrorPageMarkers)
	errorText := wordPatterns(h.ErrorPageTextMarkers)

	return []Rule{
		{
			Name:    RuleErrorPage,
			Verdict: stock.OutOfStock,
			Match: func(p *Page) bool {
				return matchesAny(p.title, errorPage) ||
					matchesAny(p.headings, errorPage) ||
					matchesAny(p.text, errorText)
			},
		},
		{
			Name:    RuleNegativeMarker,
			Verdict: stock.OutOfStock,
			Match: func(p *Page) bool {
				return p.textContainsAny(h.OutOfStockMarkers) ||
					hasDisabledAddControl(p) ||
					p.hasClassContaining(h.UnavailableClasses)
			},
		},
		{
			Name:    RuleNotifyMe,
			Verdict: stock.OutOfStock,
			Match: func(p *Page) bool {
				return p.textContainsAny(h.NotifyMeMarkers)
			},
		},
		{
			Name:    RuleAddToCartWithPrice,
			Verdict: stock.InStock,
			Match: func(p *Page) bool {
				return p.HasPrice() && hasEnabledAddToCart(p, h.AddToCartMarkers)
			},
		},
		{
			Name:    RulePriceWithoutNegative,
			Verdict: stock.InStock,
			Match: func(p *Page) bool {
				return p.HasPrice() && !p.textContainsAny(h.OutOfStockMarkers)
			},
		},
	}
}

func hasDisabledAddControl(p *Page) bool {
	found := false
	p.controls(func(label string, disabled bool) bool {
		if disabled && strings.Contains(label, "add") {
			found = true
		}
		return !found
	})
	return found
}

func hasEnabledAddToCart(p *Page, markers []string) bool {
	found := false
	p.controls(func(label string, disabled bool) bool {
		if disabled {
			return true
		}
		if label == "add" || containsAny(label, markers) {
			found = true
		}
		return !found
	})
	return found
}

// wordPatterns compiles markers so they only match on word boundaries,
// keeping "error" from matching inside "errorless" or "404" inside "14045".
func wordPatterns(markers []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(markers))
	for _, marker := range markers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(marker)+`\b`))
	}
	return patterns
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
