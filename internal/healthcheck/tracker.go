package healthcheck

import (
	"sync"
	"time"

	"github.com/nholik/stock-sentinel/internal/stock"
)

// Snapshot describes the latest cycle timing details.
type Snapshot struct {
	LastCycleTime       *time.Time  `json:"last_cycle_time"`
	CycleDurationMS     int64       `json:"cycle_duration_ms"`
	StockState          stock.State `json:"stock_state"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
}

// Tracker records cycle timing for health endpoints.
type Tracker struct {
	mu                  sync.RWMutex
	lastCycle           time.Time
	cycleDuration       time.Duration
	stockState          stock.State
	consecutiveFailures int
	ready               bool
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{stockState: stock.Unknown}
}

// RecordCycle updates cycle timing and readiness.
func (t *Tracker) RecordCycle(duration time.Duration, state stock.State, consecutiveFailures int) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastCycle = now
	t.cycleDuration = duration
	t.stockState = state
	t.consecutiveFailures = consecutiveFailures
	t.ready = true
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{StockState: stock.Unknown}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastCycle.IsZero() {
		value := t.lastCycle
		last = &value
	}
	return Snapshot{
		LastCycleTime:       last,
		CycleDurationMS:     int64(t.cycleDuration / time.Millisecond),
		StockState:          t.stockState,
		ConsecutiveFailures: t.consecutiveFailures,
	}
}

// Ready reports whether at least one cycle has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the last cycle completed within 2x the check interval.
func (t *Tracker) Healthy(now time.Time, checkInterval time.Duration) bool {
	if t == nil {
		return false
	}
	if checkInterval <= 0 {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastCycle.IsZero() {
		return false
	}
	return now.Sub(t.lastCycle) <= 2*checkInterval
}
