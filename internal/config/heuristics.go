package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nholik/stock-sentinel/internal/inference"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// HeuristicsFile is the parsed YAML structure for heuristics overrides:
// fallback, price {min, max, selectors}, markers {...}.
type HeuristicsFile struct {
	Fallback string        `yaml:"fallback"`
	Price    PriceSection  `yaml:"price"`
	Markers  MarkerSection `yaml:"markers"`
}

// PriceSection overrides the plausible price window and candidate selectors.
type PriceSection struct {
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Selectors []string `yaml:"selectors"`
}

// MarkerSection overrides the phrase and class lists used by the stock rules.
type MarkerSection struct {
	ErrorPage          []string `yaml:"error_page"`
	ErrorPageText      []string `yaml:"error_page_text"`
	OutOfStock         []string `yaml:"out_of_stock"`
	NotifyMe           []string `yaml:"notify_me"`
	AddToCart          []string `yaml:"add_to_cart"`
	UnavailableClasses []string `yaml:"unavailable_classes"`
}

// LoadHeuristics returns the default heuristics merged with the YAML file at
// path. An empty path yields the defaults. Omitted or empty keys keep their
// default values.
func LoadHeuristics(path string) (inference.Heuristics, error) {
	h := inference.DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return inference.Heuristics{}, fmt.Errorf("read heuristics file: %w", err)
	}

	var file HeuristicsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return inference.Heuristics{}, fmt.Errorf("parse heuristics file: %w", err)
	}

	if err := file.apply(&h); err != nil {
		return inference.Heuristics{}, err
	}
	if err := h.Validate(); err != nil {
		return inference.Heuristics{}, fmt.Errorf("heuristics file: %w", err)
	}
	return h, nil
}

func (f HeuristicsFile) apply(h *inference.Heuristics) error {
	if f.Fallback != "" {
		fallback, err := stock.ParseState(strings.ToLower(strings.TrimSpace(f.Fallback)))
		if err != nil {
			return fmt.Errorf("heuristics file: fallback: %w", err)
		}
		h.Fallback = fallback
	}

	if f.Price.Min != nil {
		h.PriceMin = decimal.NewFromFloat(*f.Price.Min)
	}
	if f.Price.Max != nil {
		h.PriceMax = decimal.NewFromFloat(*f.Price.Max)
	}

	override(&h.PriceSelectors, f.Price.Selectors)
	override(&h.ErrorPageMarkers, f.Markers.ErrorPage)
	override(&h.ErrorPageTextMarkers, f.Markers.ErrorPageText)
	override(&h.OutOfStockMarkers, f.Markers.OutOfStock)
	override(&h.NotifyMeMarkers, f.Markers.NotifyMe)
	override(&h.AddToCartMarkers, f.Markers.AddToCart)
	override(&h.UnavailableClasses, f.Markers.UnavailableClasses)
	return nil
}

func override(dst *[]string, values []string) {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			cleaned = append(cleaned, value)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
