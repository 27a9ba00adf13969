package inference

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const controlSelector = `button, input[type="submit"], input[type="button"], a, [role="button"]`

// Page is a parsed product page with the lowercased text views the rules read.
type Page struct {
	doc      *goquery.Document
	title    string
	headings string
	text     string
	price    decimal.NullDecimal
}

func parsePage(body []byte, h Heuristics) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	p := &Page{
		doc:      doc,
		title:    normalize(doc.Find("title").First().Text()),
		headings: normalize(doc.Find("h1, h2").Text()),
		text:     normalize(doc.Find("body").Text()),
	}
	p.price = extractPrice(doc, h)
	return p, nil
}

// HasPrice reports whether a plausible price was extracted.
func (p *Page) HasPrice() bool {
	return p.price.Valid
}

func (p *Page) textContainsAny(markers []string) bool {
	return containsAny(p.text, markers)
}

// controls calls fn for each clickable element with its label and disabled flag
// until fn returns false.
func (p *Page) controls(fn func(label string, disabled bool) bool) {
	p.doc.Find(controlSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := normalize(s.Text() + " " + s.AttrOr("value", ""))
		return fn(label, isDisabled(s))
	})
}

func (p *Page) hasClassContaining(markers []string) bool {
	found := false
	p.doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if containsAny(strings.ToLower(s.AttrOr("class", "")), markers) {
			found = true
			return false
		}
		return true
	})
	return found
}

func isDisabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(s.AttrOr("aria-disabled", "")), "true")
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" && strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
