package service

import (
	"time"

	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
)

type buyTotals struct {
	qty  decimal.Decimal
	cost decimal.Decimal // price*qty + commission

	// buys sharing the latest timestamp, not yet earlier than anything
	pendingQty  decimal.Decimal
	pendingCost decimal.Decimal
	pendingAt   time.Time
}

// settle folds pending buys into the totals once a trade with a later timestamp shows up.
func (b *buyTotals) settle(at time.Time) {
	if at.After(b.pendingAt) && !b.pendingQty.IsZero() {
		b.qty = b.qty.Add(b.pendingQty)
		b.cost = b.cost.Add(b.pendingCost)
		b.pendingQty = decimal.Zero
		b.pendingCost = decimal.Zero
	}
}

// RealizedPnL sums the realized gain of every sell in trades, which must be in ledger order.
// Each sell is costed at the commission-inclusive weighted average of the buys of its symbol with a strictly
// earlier timestamp, gain = (price*qty - commission) - avg*qty. Sells with no such buy realize nothing.
func RealizedPnL(trades []model.Transaction) decimal.Decimal {
	buys := make(map[string]*buyTotals)
	total := decimal.Zero
	for _, t := range trades {
		b := buys[t.Symbol]
		if b == nil {
			b = &buyTotals{}
			buys[t.Symbol] = b
		}
		b.settle(t.Timestamp)
		switch t.Type {
		case model.TxBuy:
			b.pendingQty = b.pendingQty.Add(t.Quantity)
			b.pendingCost = b.pendingCost.Add(t.Price.Mul(t.Quantity)).Add(t.Commission)
			b.pendingAt = t.Timestamp
		case model.TxSell:
			if !b.qty.IsPositive() {
				continue
			}
			proceeds := t.Price.Mul(t.Quantity).Sub(t.Commission)
			cost := b.cost.Mul(t.Quantity).Div(b.qty)
			total = total.Add(proceeds.Sub(cost))
		}
	}
	return total
}
