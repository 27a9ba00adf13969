package transition

import (
	"testing"

	"github.com/nholik/stock-sentinel/internal/state"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/shopspring/decimal"
)

func observe(s stock.State, price string) stock.Observation {
	obs := stock.Observation{State: s}
	if price != "" {
		obs.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	return obs
}

func TestEvaluate_FirstRunAnnouncesInitialStatus(t *testing.T) {
	next, notes := Evaluate(state.New(), observe(stock.InStock, "499"), DefaultOptions())

	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].Kind != KindInitialStatus {
		t.Fatalf("expected initial status, got %s", notes[0].Kind)
	}
	if notes[0].Severity != SeverityInfo {
		t.Fatalf("expected info severity, got %s", notes[0].Severity)
	}
	if next.LastStockState != stock.InStock {
		t.Fatalf("expected in_stock snapshot, got %s", next.LastStockState)
	}
	if !next.LastPrice.Valid || !next.LastPrice.Decimal.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("expected price 499, got %v", next.LastPrice)
	}
}

func TestEvaluate_NoOpOnUnchangedInput(t *testing.T) {
	prev, _ := Evaluate(state.New(), observe(stock.OutOfStock, "499"), DefaultOptions())

	next, notes := Evaluate(prev, observe(stock.OutOfStock, "499"), DefaultOptions())
	if len(notes) != 0 {
		t.Fatalf("expected no notifications, got %+v", notes)
	}
	if next.LastStockState != prev.LastStockState ||
		!next.LastPrice.Decimal.Equal(prev.LastPrice.Decimal) ||
		next.ConsecutiveFailures != prev.ConsecutiveFailures {
		t.Fatalf("expected snapshot unchanged, got %+v", next)
	}
}

func TestEvaluate_StockChanges(t *testing.T) {
	cases := []struct {
		name  string
		from  stock.State
		to    stock.State
		price string
		want  Kind
	}{
		{"back in stock", stock.OutOfStock, stock.InStock, "499", KindBackInStock},
		{"out of stock again", stock.InStock, stock.OutOfStock, "", KindOutOfStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev := state.Snapshot{LastStockState: tc.from, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(450))}
			next, notes := Evaluate(prev, observe(tc.to, tc.price), DefaultOptions())

			if len(notes) != 1 || notes[0].Kind != tc.want {
				t.Fatalf("expected one %s notification, got %+v", tc.want, notes)
			}
			if notes[0].PreviousState != tc.from || notes[0].State != tc.to {
				t.Fatalf("unexpected states in notification: %+v", notes[0])
			}
			if next.LastStockState != tc.to {
				t.Fatalf("expected snapshot state %s, got %s", tc.to, next.LastStockState)
			}
		})
	}
}

func TestEvaluate_StockChangeTakesPriorityOverPriceChange(t *testing.T) {
	prev := state.Snapshot{LastStockState: stock.OutOfStock, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(499))}

	_, notes := Evaluate(prev, observe(stock.InStock, "560"), DefaultOptions())
	if len(notes) != 1 || notes[0].Kind != KindBackInStock {
		t.Fatalf("expected single back in stock notification, got %+v", notes)
	}
	if !notes[0].Price.Decimal.Equal(decimal.NewFromInt(560)) {
		t.Fatalf("expected current price 560 in notification, got %v", notes[0].Price)
	}
}

func TestEvaluate_PriceChangeThreshold(t *testing.T) {
	cases := []struct {
		name   string
		prev   string
		next   string
		notify bool
	}{
		{"half unit does not notify", "499", "499.5", false},
		{"exactly one unit notifies", "499", "500", true},
		{"exact decrease notifies", "500", "499", true},
		{"large increase notifies", "499", "560", true},
		{"missing new price does not notify", "499", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev := state.Snapshot{LastStockState: stock.InStock, LastPrice: decimal.NewNullDecimal(decimal.RequireFromString(tc.prev))}
			_, notes := Evaluate(prev, observe(stock.InStock, tc.next), DefaultOptions())

			if !tc.notify {
				if len(notes) != 0 {
					t.Fatalf("expected no notification, got %+v", notes)
				}
				return
			}
			if len(notes) != 1 || notes[0].Kind != KindPriceChange {
				t.Fatalf("expected price change notification, got %+v", notes)
			}
			want := decimal.RequireFromString(tc.next).Sub(decimal.RequireFromString(tc.prev))
			if !notes[0].Delta.Equal(want) {
				t.Fatalf("expected delta %s, got %s", want, notes[0].Delta)
			}
		})
	}
}

func TestEvaluate_NonPositivePriceThresholdUsesDefault(t *testing.T) {
	prev := state.Snapshot{LastStockState: stock.InStock, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(499))}

	for _, opts := range []Options{{}, {PriceNotifyThreshold: decimal.NewFromInt(-5)}} {
		_, notes := Evaluate(prev, observe(stock.InStock, "499"), opts)
		if len(notes) != 0 {
			t.Fatalf("threshold %s: expected unchanged price to stay silent, got %+v", opts.PriceNotifyThreshold, notes)
		}

		_, notes = Evaluate(prev, observe(stock.InStock, "499.5"), opts)
		if len(notes) != 0 {
			t.Fatalf("threshold %s: expected half-rupee move to stay silent, got %+v", opts.PriceNotifyThreshold, notes)
		}

		_, notes = Evaluate(prev, observe(stock.InStock, "500"), opts)
		if len(notes) != 1 || notes[0].Kind != KindPriceChange {
			t.Fatalf("threshold %s: expected one-rupee move to notify, got %+v", opts.PriceNotifyThreshold, notes)
		}
	}
}

func TestEvaluate_PriceDirection(t *testing.T) {
	prev := state.Snapshot{LastStockState: stock.InStock, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(560))}

	_, notes := Evaluate(prev, observe(stock.InStock, "500"), DefaultOptions())
	if len(notes) != 1 || notes[0].PriceIncreased() {
		t.Fatalf("expected a price decrease, got %+v", notes)
	}
	if !notes[0].PreviousPrice.Decimal.Equal(decimal.NewFromInt(560)) {
		t.Fatalf("expected previous price 560, got %v", notes[0].PreviousPrice)
	}
}

func TestEvaluate_MissingPriceKeepsLastKnown(t *testing.T) {
	prev := state.Snapshot{LastStockState: stock.InStock, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(499))}

	next, _ := Evaluate(prev, observe(stock.InStock, ""), DefaultOptions())
	if !next.LastPrice.Valid || !next.LastPrice.Decimal.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("expected price 499 to survive, got %v", next.LastPrice)
	}
}

func TestEvaluate_FailureEscalation(t *testing.T) {
	snapshot := state.New()
	var warnings, criticals []int

	for cycle := 1; cycle <= 12; cycle++ {
		var notes []Notification
		snapshot, notes = Evaluate(snapshot, stock.UnknownObservation(), DefaultOptions())
		for _, note := range notes {
			switch note.Kind {
			case KindFailureWarning:
				warnings = append(warnings, cycle)
			case KindFailureCritical:
				criticals = append(criticals, cycle)
			default:
				t.Fatalf("unexpected notification %s", note.Kind)
			}
		}
	}

	if len(warnings) != 1 || warnings[0] != 5 {
		t.Fatalf("expected one warning on cycle 5, got %v", warnings)
	}
	if len(criticals) != 1 || criticals[0] != 10 {
		t.Fatalf("expected one critical on cycle 10, got %v", criticals)
	}
	if snapshot.ConsecutiveFailures != 12 {
		t.Fatalf("expected 12 failures, got %d", snapshot.ConsecutiveFailures)
	}
	if snapshot.LastStockState != stock.Unknown {
		t.Fatalf("unknown cycles must not change stock state, got %s", snapshot.LastStockState)
	}
}

func TestEvaluate_SuccessResetsFailures(t *testing.T) {
	snapshot := state.Snapshot{LastStockState: stock.InStock, ConsecutiveFailures: 4}

	snapshot, _ = Evaluate(snapshot, observe(stock.InStock, ""), DefaultOptions())
	if snapshot.ConsecutiveFailures != 0 {
		t.Fatalf("expected failures reset, got %d", snapshot.ConsecutiveFailures)
	}

	var total int
	for i := 0; i < 4; i++ {
		var notes []Notification
		snapshot, notes = Evaluate(snapshot, stock.UnknownObservation(), DefaultOptions())
		total += len(notes)
	}
	if total != 0 {
		t.Fatalf("expected no warning before the threshold after reset, got %d", total)
	}
}

func TestEvaluate_HeartbeatIsOptIn(t *testing.T) {
	prev := state.Snapshot{LastStockState: stock.InStock, LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(499))}

	_, notes := Evaluate(prev, observe(stock.InStock, "499"), DefaultOptions())
	if len(notes) != 0 {
		t.Fatalf("expected silence without heartbeat, got %+v", notes)
	}

	opts := DefaultOptions()
	opts.Heartbeat = true
	_, notes = Evaluate(prev, observe(stock.InStock, "499"), opts)
	if len(notes) != 1 || notes[0].Kind != KindHeartbeat {
		t.Fatalf("expected heartbeat, got %+v", notes)
	}
}

func TestEvaluate_EndToEndScenario(t *testing.T) {
	steps := []struct {
		obs      stock.Observation
		want     []Kind
		failures int
	}{
		{observe(stock.InStock, "499.0"), []Kind{KindInitialStatus}, 0},
		{observe(stock.OutOfStock, "499.0"), []Kind{KindOutOfStock}, 0},
		{observe(stock.OutOfStock, "499.0"), nil, 0},
		{observe(stock.OutOfStock, "560.0"), []Kind{KindPriceChange}, 0},
		{stock.UnknownObservation(), nil, 1},
	}

	snapshot := state.New()
	for i, step := range steps {
		var notes []Notification
		snapshot, notes = Evaluate(snapshot, step.obs, DefaultOptions())

		if len(notes) != len(step.want) {
			t.Fatalf("cycle %d: expected %v, got %+v", i+1, step.want, notes)
		}
		for j, kind := range step.want {
			if notes[j].Kind != kind {
				t.Fatalf("cycle %d: expected %s, got %s", i+1, kind, notes[j].Kind)
			}
		}
		if snapshot.ConsecutiveFailures != step.failures {
			t.Fatalf("cycle %d: expected %d failures, got %d", i+1, step.failures, snapshot.ConsecutiveFailures)
		}
	}

	if snapshot.LastStockState != stock.OutOfStock {
		t.Fatalf("expected out_of_stock after unknown cycle, got %s", snapshot.LastStockState)
	}
	if !snapshot.LastPrice.Decimal.Equal(decimal.NewFromInt(560)) {
		t.Fatalf("expected price 560 after unknown cycle, got %v", snapshot.LastPrice)
	}
}
