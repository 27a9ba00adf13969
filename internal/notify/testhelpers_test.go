package notify

import (
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/shopspring/decimal"
)

const testProduct = "https://shop.example.com/pn/taj-mahal-tea"

func backInStock() transition.Notification {
	return transition.Notification{
		Kind:          transition.KindBackInStock,
		Severity:      transition.SeverityInfo,
		State:         stock.InStock,
		PreviousState: stock.OutOfStock,
		Price:         decimal.NewNullDecimal(decimal.NewFromInt(499)),
	}
}
