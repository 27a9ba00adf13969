package inference

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// priceGap is the separator between currency tag and amount, including the
// no-break spaces U+00A0 and U+202F that \s does not match.
const priceGap = `[\s\x{00A0}\x{202F}]*`

const priceAmount = `([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

// pricePatterns are tried in order; the first capture group is the amount.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹` + priceGap + priceAmount),
	regexp.MustCompile(`(?i)\brs\.?` + priceGap + priceAmount),
	regexp.MustCompile(`(?i)\binr` + priceGap + priceAmount),
}

func extractPrice(doc *goquery.Document, h Heuristics) decimal.NullDecimal {
	if value, ok := findPrice(doc.Find("title").First().Text(), h); ok {
		return decimal.NewNullDecimal(value)
	}

	for _, candidates := range priceCandidates(doc, h) {
		var (
			value decimal.Decimal
			found bool
		)
		candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value, found = findPrice(s.Text(), h)
			return !found
		})
		if found {
			return decimal.NewNullDecimal(value)
		}
	}

	return decimal.NullDecimal{}
}

// priceCandidates returns candidate element groups in priority order:
// elements with an attribute named like "price", then each configured selector.
func priceCandidates(doc *goquery.Document, h Heuristics) []*goquery.Selection {
	named := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, node := range s.Nodes {
			for _, attr := range node.Attr {
				if strings.Contains(strings.ToLower(attr.Key), "price") {
					return true
				}
			}
		}
		return false
	})

	groups := []*goquery.Selection{named}
	for _, selector := range h.PriceSelectors {
		groups = append(groups, doc.Find(selector))
	}
	return groups
}

// findPrice returns the first currency-tagged amount in text that falls inside
// the plausibility window.
func findPrice(text string, h Heuristics) (decimal.Decimal, bool) {
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			value, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
			if err != nil {
				continue
			}
			if h.inWindow(value) {
				return value, true
			}
		}
	}
	return decimal.Decimal{}, false
}
