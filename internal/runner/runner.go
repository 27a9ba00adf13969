package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nholik/stock-sentinel/internal/healthcheck"
	"github.com/nholik/stock-sentinel/internal/metrics"
	"github.com/nholik/stock-sentinel/internal/notify"
	"github.com/nholik/stock-sentinel/internal/page"
	"github.com/nholik/stock-sentinel/internal/state"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the runner loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Inferrer turns a page body into an observation and names the rule that decided it.
type Inferrer interface {
	Explain(body []byte) (stock.Observation, string)
}

// Runner orchestrates the main execution loop.
type Runner struct {
	logger        zerolog.Logger
	checkInterval time.Duration
	tickerFactory func(time.Duration) Ticker
	runOnce       func(context.Context) error
	productURL    string
	fetcher       page.Fetcher
	engine        Inferrer
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	tracker       *healthcheck.Tracker
	options       transition.Options
	lastHash      string

	mu       sync.Mutex
	snapshot state.Snapshot
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithRunOnce overrides the single-cycle execution step.
func WithRunOnce(runOnce func(context.Context) error) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithFetcher sets the page fetcher used by the default RunOnce.
func WithFetcher(fetcher page.Fetcher) Option {
	return func(r *Runner) {
		r.fetcher = fetcher
	}
}

// WithEngine sets the inference engine used by the default RunOnce.
func WithEngine(engine Inferrer) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithNotifier sets where notifications are delivered.
func WithNotifier(notifier notify.Notifier) Option {
	return func(r *Runner) {
		r.notifier = notifier
	}
}

// WithProductURL sets the product URL quoted in notifications.
func WithProductURL(url string) Option {
	return func(r *Runner) {
		r.productURL = url
	}
}

// WithMetrics records cycle outcomes into the given collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracker records cycle timing for the health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// WithTransitionOptions overrides failure thresholds, price threshold and heartbeat.
func WithTransitionOptions(opts transition.Options) Option {
	return func(r *Runner) {
		r.options = opts
	}
}

// New constructs a Runner with the given logger and check interval.
func New(logger zerolog.Logger, checkInterval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:        logger,
		checkInterval: checkInterval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
		options:  transition.DefaultOptions(),
		snapshot: state.New(),
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the main loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.checkInterval <= 0 {
		return errors.New("check interval must be greater than zero")
	}

	// Run immediately on startup
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial run cycle failed")
	}

	ticker := r.tickerFactory(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-ticker.C():
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("run cycle failed")
			}
		}
	}
}

// RunOnce executes a single cycle of the runner.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.runOnce(ctx)
}

// Snapshot returns the state carried between cycles.
func (r *Runner) Snapshot() state.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

func (r *Runner) defaultRunOnce(ctx context.Context) error {
	if r.fetcher == nil || r.engine == nil {
		return errors.New("runner requires a fetcher and an inference engine")
	}

	start := time.Now()
	obs := r.observe(ctx)
	if err := ctx.Err(); err != nil {
		// Shutdown mid-cycle is not a failed observation.
		return nil
	}

	r.mu.Lock()
	prev := r.snapshot
	next, notes := transition.Evaluate(prev, obs, r.options)
	r.snapshot = next
	r.mu.Unlock()

	duration := time.Since(start)
	r.record(duration, obs, next)

	event := r.logger.Info()
	if !obs.State.Known() {
		event = r.logger.Warn()
	}
	event.
		Str("observed_state", obs.State.String()).
		Str("observed_price", stock.FormatPrice(obs.Price)).
		Str("stock_state", next.LastStockState.String()).
		Str("price", stock.FormatPrice(next.LastPrice)).
		Int("consecutive_failures", next.ConsecutiveFailures).
		Int("notifications", len(notes)).
		Dur("duration", duration).
		Msg("stock check completed")

	if len(notes) == 0 {
		return nil
	}
	for _, note := range notes {
		r.metrics.IncNotifications(string(note.Kind))
		r.logger.Info().
			Str("kind", string(note.Kind)).
			Str("severity", string(note.Severity)).
			Str("previous_state", note.PreviousState.String()).
			Str("current_state", note.State.String()).
			Msg("notification raised")
	}

	if r.notifier == nil {
		return nil
	}
	if err := r.notifier.Notify(ctx, r.productURL, notes); err != nil {
		r.metrics.IncNotificationFailures()
		return wrapRuntime(OpNotify, err)
	}
	return nil
}

// observe fetches the page and classifies it. Fetch failures become Unknown.
func (r *Runner) observe(ctx context.Context) stock.Observation {
	result := r.fetcher.Fetch(ctx)
	if !result.OK() {
		kind := "unknown"
		var fetchErr *page.FetchError
		if errors.As(result.Err, &fetchErr) {
			kind = string(fetchErr.Kind)
		}
		r.metrics.IncFetchErrors(kind)
		r.logger.Warn().
			Err(result.Err).
			Str("error_kind", kind).
			Int("attempts", result.Attempts).
			Msg("page fetch failed")
		return stock.UnknownObservation()
	}

	obs, rule := r.engine.Explain(result.Body)

	event := r.logger.Debug().
		Int("bytes", len(result.Body)).
		Int("attempts", result.Attempts).
		Str("rule", rule)
	if hash, err := page.Fingerprint(result.Body); err == nil {
		if hash == r.lastHash {
			event = event.Bool("page_unchanged", true)
		}
		r.lastHash = hash
		event = event.Str("fingerprint", hash)
	}
	event.Msg("page classified")

	if !obs.State.Known() {
		r.logger.Warn().
			Str("rule", rule).
			Str("price", stock.FormatPrice(obs.Price)).
			Msg("page signals ambiguous")
	}
	return obs
}

func (r *Runner) record(duration time.Duration, obs stock.Observation, snapshot state.Snapshot) {
	r.metrics.ObserveCycleDuration(duration)
	r.metrics.SetStockState(snapshot.LastStockState)
	r.metrics.SetPrice(snapshot.LastPrice)
	r.metrics.SetConsecutiveFailures(snapshot.ConsecutiveFailures)
	if obs.State.Known() {
		r.metrics.SetLastSuccessfulCycleTimestamp(time.Now())
	}
	r.tracker.RecordCycle(duration, snapshot.LastStockState, snapshot.ConsecutiveFailures)
}
