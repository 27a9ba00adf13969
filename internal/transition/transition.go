package transition

import (
	"github.com/nholik/stock-sentinel/internal/state"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/shopspring/decimal"
)

// Kind identifies why a notification was raised.
type Kind string

const (
	KindInitialStatus   Kind = "initial_status"
	KindBackInStock     Kind = "back_in_stock"
	KindOutOfStock      Kind = "out_of_stock"
	KindPriceChange     Kind = "price_change"
	KindFailureWarning  Kind = "failure_warning"
	KindFailureCritical Kind = "failure_critical"
	KindHeartbeat       Kind = "heartbeat"
)

// Severity ranks notifications for routing and formatting.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notification is a single message-worthy event produced by Evaluate.
type Notification struct {
	Kind                Kind                `json:"kind"`
	Severity            Severity            `json:"severity"`
	State               stock.State         `json:"state"`
	PreviousState       stock.State         `json:"previous_state"`
	Price               decimal.NullDecimal `json:"price"`
	PreviousPrice       decimal.NullDecimal `json:"previous_price"`
	Delta               decimal.Decimal     `json:"delta"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
}

// PriceIncreased reports whether a price change went up.
func (n Notification) PriceIncreased() bool {
	return n.Delta.IsPositive()
}

// Options tunes when Evaluate raises notifications.
type Options struct {
	WarningThreshold  int
	CriticalThreshold int
	// PriceNotifyThreshold is the smallest price move that notifies.
	// Non-positive values mean one rupee.
	PriceNotifyThreshold decimal.Decimal
	// Heartbeat raises a notification on every successful cycle that
	// would otherwise stay silent.
	Heartbeat bool
}

var defaultPriceNotifyThreshold = decimal.NewFromInt(1)

// DefaultOptions returns thresholds of 5 and 10 unknown cycles and a one-rupee price delta.
func DefaultOptions() Options {
	return Options{
		WarningThreshold:     5,
		CriticalThreshold:    10,
		PriceNotifyThreshold: defaultPriceNotifyThreshold,
	}
}

// priceThreshold returns the configured delta, or one rupee when it is not positive.
func (o Options) priceThreshold() decimal.Decimal {
	if !o.PriceNotifyThreshold.IsPositive() {
		return defaultPriceNotifyThreshold
	}
	return o.PriceNotifyThreshold
}

// Evaluate folds one cycle's observation into the snapshot and returns the
// updated snapshot with any notifications the change warrants.
func Evaluate(prev state.Snapshot, obs stock.Observation, opts Options) (state.Snapshot, []Notification) {
	next := prev

	if !obs.State.Known() {
		next.ConsecutiveFailures++
		return next, failureNotifications(next, opts)
	}

	next.ConsecutiveFailures = 0
	next.LastStockState = obs.State
	if obs.Price.Valid {
		next.LastPrice = obs.Price
	}

	base := Notification{
		Severity:      SeverityInfo,
		State:         obs.State,
		PreviousState: prev.LastStockState,
		Price:         next.LastPrice,
		PreviousPrice: prev.LastPrice,
	}

	switch {
	case prev.Initialized() && prev.LastStockState != obs.State:
		base.Kind = KindOutOfStock
		if obs.State == stock.InStock {
			base.Kind = KindBackInStock
		}
		return next, []Notification{base}
	case priceChanged(prev.LastPrice, obs.Price, opts.priceThreshold()):
		base.Kind = KindPriceChange
		base.Delta = obs.Price.Decimal.Sub(prev.LastPrice.Decimal)
		return next, []Notification{base}
	case !prev.Initialized():
		base.Kind = KindInitialStatus
		return next, []Notification{base}
	case opts.Heartbeat:
		base.Kind = KindHeartbeat
		return next, []Notification{base}
	}

	return next, nil
}

func priceChanged(prev, current decimal.NullDecimal, threshold decimal.Decimal) bool {
	if !prev.Valid || !current.Valid {
		return false
	}
	return current.Decimal.Sub(prev.Decimal).Abs().GreaterThanOrEqual(threshold)
}

func failureNotifications(snapshot state.Snapshot, opts Options) []Notification {
	var kind Kind
	var severity Severity
	switch snapshot.ConsecutiveFailures {
	case opts.WarningThreshold:
		kind, severity = KindFailureWarning, SeverityWarning
	case opts.CriticalThreshold:
		kind, severity = KindFailureCritical, SeverityCritical
	default:
		return nil
	}

	return []Notification{{
		Kind:                kind,
		Severity:            severity,
		State:               stock.Unknown,
		PreviousState:       snapshot.LastStockState,
		Price:               snapshot.LastPrice,
		PreviousPrice:       snapshot.LastPrice,
		ConsecutiveFailures: snapshot.ConsecutiveFailures,
	}}
}
