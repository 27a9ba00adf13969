package state

import (
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/shopspring/decimal"
)

// Snapshot is the monitor's memory between cycles. It lives only for the
// lifetime of the process; a restart starts from New again.
type Snapshot struct {
	LastStockState      stock.State
	LastPrice           decimal.NullDecimal
	ConsecutiveFailures int
}

// New returns the snapshot used before the first cycle.
func New() Snapshot {
	return Snapshot{LastStockState: stock.Unknown}
}

// Initialized reports whether a usable stock state has ever been observed.
func (s Snapshot) Initialized() bool {
	return s.LastStockState.Known()
}
