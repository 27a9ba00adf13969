package stock

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// State is the inferred availability of the monitored product.
type State string

const (
	Unknown    State = "unknown"
	InStock    State = "in_stock"
	OutOfStock State = "out_of_stock"
)

// ParseState converts a configuration string into a State.
func ParseState(value string) (State, error) {
	switch State(value) {
	case Unknown, InStock, OutOfStock:
		return State(value), nil
	case "":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("unknown stock state %q", value)
	}
}

// Known reports whether the state carries a usable signal.
func (s State) Known() bool {
	return s == InStock || s == OutOfStock
}

// Label returns the human-facing form used in messages.
func (s State) Label() string {
	switch s {
	case InStock:
		return "IN STOCK"
	case OutOfStock:
		return "OUT OF STOCK"
	default:
		return "UNKNOWN"
	}
}

func (s State) String() string {
	if s == "" {
		return string(Unknown)
	}
	return string(s)
}

// Observation is the outcome of inferring one fetched page.
type Observation struct {
	State State
	Price decimal.NullDecimal
}

// UnknownObservation is used when a cycle yields no usable signal.
func UnknownObservation() Observation {
	return Observation{State: Unknown}
}

// FormatPrice renders a price in rupees, or "unknown" when absent.
func FormatPrice(price decimal.NullDecimal) string {
	if !price.Valid {
		return "unknown"
	}
	return "₹" + price.Decimal.StringFixed(2)
}
