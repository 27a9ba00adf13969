package inference

import (
	"github.com/nholik/stock-sentinel/internal/stock"
)

// Engine maps a fetched product page to a stock observation.
type Engine struct {
	heuristics Heuristics
	rules      []Rule
}

// NewEngine validates the heuristics and prepares the ordered rule list.
func NewEngine(h Heuristics) (*Engine, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.Fallback == "" {
		h.Fallback = stock.Unknown
	}
	return &Engine{heuristics: h, rules: buildRules(h)}, nil
}

// Infer returns the stock state and price for the document.
func (e *Engine) Infer(body []byte) stock.Observation {
	obs, _ := e.Explain(body)
	return obs
}

// Explain is Infer plus the name of the rule that decided the state.
func (e *Engine) Explain(body []byte) (stock.Observation, string) {
	page, err := parsePage(body, e.heuristics)
	if err != nil {
		return stock.UnknownObservation(), RuleFallback
	}

	obs := stock.Observation{State: e.heuristics.Fallback, Price: page.price}
	for _, rule := range e.rules {
		if rule.Match(page) {
			obs.State = rule.Verdict
			return obs, rule.Name
		}
	}
	return obs, RuleFallback
}

// RuleNames lists the rules in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, 0, len(e.rules)+1)
	for _, rule := range e.rules {
		names = append(names, rule.Name)
	}
	return append(names, RuleFallback)
}
