package metrics

import (
	"net/http"
	"time"

	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var trackedStates = []stock.State{stock.Unknown, stock.InStock, stock.OutOfStock}

// Metrics wraps Prometheus collectors for stock-sentinel.
type Metrics struct {
	registry                 *prometheus.Registry
	cycleDurationSeconds     prometheus.Histogram
	stockState               *prometheus.GaugeVec
	priceGauge               prometheus.Gauge
	consecutiveFailures      prometheus.Gauge
	notificationsTotal       *prometheus.CounterVec
	notificationFailures     prometheus.Counter
	fetchErrorsTotal         *prometheus.CounterVec
	lastSuccessfulCycleGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stock_sentinel_cycle_duration_seconds",
			Help:    "Duration of stock check cycles in seconds, including fetch retries.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		stockState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stock_sentinel_stock_state",
			Help: "Last known stock state; 1 for the current state, 0 otherwise.",
		}, []string{"state"}),
		priceGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sentinel_price",
			Help: "Last known product price.",
		}),
		consecutiveFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sentinel_consecutive_failures",
			Help: "Consecutive cycles without a usable stock signal.",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_sentinel_notifications_total",
			Help: "Total notifications raised by kind.",
		}, []string{"kind"}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_sentinel_notification_failures_total",
			Help: "Total notification batches that failed delivery after retries.",
		}),
		fetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_sentinel_fetch_errors_total",
			Help: "Total page fetch failures after retries by error kind.",
		}, []string{"kind"}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sentinel_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last cycle with a known stock state.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.stockState,
		m.priceGauge,
		m.consecutiveFailures,
		m.notificationsTotal,
		m.notificationFailures,
		m.fetchErrorsTotal,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycleDuration records the duration of a completed cycle.
func (m *Metrics) ObserveCycleDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
}

// SetStockState marks current as the active state.
func (m *Metrics) SetStockState(current stock.State) {
	if m == nil {
		return
	}
	for _, s := range trackedStates {
		value := 0.0
		if s == current {
			value = 1
		}
		m.stockState.WithLabelValues(s.String()).Set(value)
	}
}

// SetPrice records the last known price. Unknown prices leave the gauge untouched.
func (m *Metrics) SetPrice(price decimal.NullDecimal) {
	if m == nil || !price.Valid {
		return
	}
	m.priceGauge.Set(price.Decimal.InexactFloat64())
}

// SetConsecutiveFailures sets the failure streak gauge.
func (m *Metrics) SetConsecutiveFailures(count int) {
	if m == nil {
		return
	}
	m.consecutiveFailures.Set(float64(count))
}

// IncNotifications increments the notification counter for kind.
func (m *Metrics) IncNotifications(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind).Inc()
}

// IncNotificationFailures increments the delivery failure counter.
func (m *Metrics) IncNotificationFailures() {
	if m == nil {
		return
	}
	m.notificationFailures.Inc()
}

// IncFetchErrors increments the fetch error counter for kind.
func (m *Metrics) IncFetchErrors(kind string) {
	if m == nil {
		return
	}
	m.fetchErrorsTotal.WithLabelValues(kind).Inc()
}

// SetLastSuccessfulCycleTimestamp sets the last successful cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
