package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nholik/stock-sentinel/internal/inference"
	"github.com/nholik/stock-sentinel/internal/page"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// manualTicker only fires when the test sends on ticks.
type manualTicker struct {
	ticks   chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ticks: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ticks }

func (m *manualTicker) Stop() { m.stopped.Store(true) }

// channelNotifier hands every batch to the test goroutine.
type channelNotifier struct {
	batches chan []transition.Notification
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{batches: make(chan []transition.Notification, 8)}
}

func (n *channelNotifier) Notify(_ context.Context, _ string, notes []transition.Notification) error {
	n.batches <- notes
	return nil
}

func (n *channelNotifier) next(t *testing.T) []transition.Notification {
	t.Helper()
	select {
	case notes := <-n.batches:
		return notes
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for notifications")
		return nil
	}
}

func newEngine(t *testing.T) *inference.Engine {
	t.Helper()
	engine, err := inference.NewEngine(inference.DefaultHeuristics())
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return engine
}

func newLoopRunner(t *testing.T, fetcher page.Fetcher, notifier *channelNotifier, ticker *manualTicker) *Runner {
	t.Helper()
	return New(zerolog.Nop(), time.Minute,
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
		WithFetcher(fetcher),
		WithEngine(newEngine(t)),
		WithNotifier(notifier),
		WithProductURL(productURL),
	)
}

// startRunner runs r in the background and returns a stop func that cancels
// the loop and waits for Run to return.
func startRunner(t *testing.T, r *Runner) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	return func() {
		t.Helper()
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatalf("runner did not stop after cancel")
		}
	}
}

func TestRunner_Run_AnnouncesInitialStatusBeforeFirstTick(t *testing.T) {
	fetcher := &scriptedFetcher{results: []page.Result{body(inStockPage)}}
	notifier := newChannelNotifier()
	ticker := newManualTicker()
	r := newLoopRunner(t, fetcher, notifier, ticker)

	stop := startRunner(t, r)
	notes := notifier.next(t)
	snapshot := r.Snapshot()
	stop()

	if len(notes) != 1 || notes[0].Kind != transition.KindInitialStatus {
		t.Fatalf("expected a single initial_status notification, got %+v", notes)
	}
	if notes[0].State != stock.InStock {
		t.Fatalf("expected initial status in_stock, got %s", notes[0].State)
	}
	if snapshot.LastStockState != stock.InStock {
		t.Fatalf("expected snapshot in_stock, got %s", snapshot.LastStockState)
	}
	if !snapshot.LastPrice.Valid || snapshot.LastPrice.Decimal.IntPart() != 499 {
		t.Fatalf("expected snapshot price 499, got %s", stock.FormatPrice(snapshot.LastPrice))
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch before any tick, got %d", fetcher.calls)
	}
}

func TestRunner_Run_TicksDriveStockTransitions(t *testing.T) {
	fetcher := &scriptedFetcher{results: []page.Result{
		body(inStockPage),
		body(outOfStockPage),
		body(inStockPage),
	}}
	notifier := newChannelNotifier()
	ticker := newManualTicker()
	r := newLoopRunner(t, fetcher, notifier, ticker)

	stop := startRunner(t, r)
	defer stop()

	want := []transition.Kind{
		transition.KindInitialStatus,
		transition.KindOutOfStock,
		transition.KindBackInStock,
	}
	for i, kind := range want {
		if i > 0 {
			ticker.ticks <- time.Now()
		}
		notes := notifier.next(t)
		if len(notes) != 1 || notes[0].Kind != kind {
			t.Fatalf("cycle %d: expected %s, got %+v", i+1, kind, notes)
		}
	}

	if got := r.Snapshot().LastStockState; got != stock.InStock {
		t.Fatalf("expected in_stock after restock, got %s", got)
	}
}

func TestRunner_Run_StopsTickerOnCancel(t *testing.T) {
	fetcher := &scriptedFetcher{results: []page.Result{failure(page.KindTransport)}}
	ticker := newManualTicker()
	r := New(zerolog.Nop(), time.Minute,
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
		WithFetcher(fetcher),
		WithEngine(newEngine(t)),
	)

	stop := startRunner(t, r)
	stop()

	if !ticker.stopped.Load() {
		t.Fatalf("expected ticker to be stopped")
	}
}

func TestRunner_Run_RejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		r := New(zerolog.Nop(), interval)
		if err := r.Run(context.Background()); err == nil {
			t.Fatalf("expected error for poll interval %s", interval)
		}
	}
}
