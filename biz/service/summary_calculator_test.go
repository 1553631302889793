package service

import (
	"context"
	"testing"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioDepositBuyBuySell(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	c, err := l.cash.SetInitialCapital(ctx, "u1", dec("0"))
	require.NoError(t, err)
	assert.True(t, c.CurrentCapital.IsZero())

	c, err = l.cash.Deposit(ctx, "u1", dec("1000"))
	require.NoError(t, err)
	assert.True(t, c.CurrentCapital.Equal(dec("1000")))

	res := l.trade(t, "u1", "SBER", model.SideBuy, "10", "250")
	assert.True(t, res.Position.Quantity.Equal(dec("10")))
	assert.True(t, res.Position.AveragePrice.Equal(dec("250")))

	res = l.trade(t, "u1", "SBER", model.SideBuy, "5", "300")
	assert.True(t, res.Position.Quantity.Equal(dec("15")))
	assert.InDelta(t, 266.67, res.Position.AveragePrice.InexactFloat64(), 0.005)

	res = l.trade(t, "u1", "SBER", model.SideSell, "15", "280")
	assert.True(t, res.Closed)

	sum, err := l.summary.GetSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.AssetCount)
	assert.True(t, sum.TotalValue.IsZero())
	assert.True(t, sum.TotalProfitLossPercentage.IsZero())
	// (15*280 - 4.2) - (2500 + 2.5 + 1500 + 1.5)
	assert.InDelta(t, 191.8, sum.RealizedProfitLoss.InexactFloat64(), 1e-9)
	assert.InDelta(t, 191.8, sum.TotalProfitLoss.InexactFloat64(), 1e-9)
	assert.True(t, sum.CashBalance.Equal(dec("1000")))
}

func TestScenarioWithoutCommission(t *testing.T) {
	l := newLedger(t, WithCommissionRate(dec("0")))
	l.trade(t, "u1", "SBER", model.SideBuy, "10", "250")
	l.trade(t, "u1", "SBER", model.SideBuy, "5", "300")
	l.trade(t, "u1", "SBER", model.SideSell, "15", "280")

	sum, err := l.summary.GetSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.InDelta(t, 200, sum.RealizedProfitLoss.InexactFloat64(), 1e-9)
}

func TestSummaryOpenPositions(t *testing.T) {
	l := newLedger(t, WithCommissionRate(dec("0")))
	ctx := context.Background()
	_, err := l.cash.Deposit(ctx, "u1", dec("10000"))
	require.NoError(t, err)

	l.trade(t, "u1", "SBER", model.SideBuy, "10", "200")
	l.trade(t, "u1", "SBER", model.SideSell, "5", "240") // realized 200, marks SBER at 240
	l.trade(t, "u1", "GAZP", model.SideBuy, "10", "100")

	sum, err := l.summary.GetSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AssetCount)
	assert.InDelta(t, 5*240+10*100, sum.TotalValue.InexactFloat64(), 1e-9)
	assert.InDelta(t, 200, sum.UnrealizedProfitLoss.InexactFloat64(), 1e-9)
	assert.InDelta(t, 200, sum.RealizedProfitLoss.InexactFloat64(), 1e-9)
	assert.InDelta(t, 400, sum.TotalProfitLoss.InexactFloat64(), 1e-9)
	assert.InDelta(t, 400.0/2200*100, sum.TotalProfitLossPercentage.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10000-2200, sum.CashBalance.InexactFloat64(), 1e-9)
}

func TestSummaryMarksToLiveQuotes(t *testing.T) {
	oracle := StaticOracle{"SBER": dec("300")}
	l := newLedger(t, WithCommissionRate(dec("0")), WithPriceOracle(oracle))
	ctx := context.Background()
	l.trade(t, "u1", "SBER", model.SideBuy, "10", "250")
	l.trade(t, "u1", "GAZP", model.SideBuy, "1", "100")

	sum, err := l.summary.GetSummary(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 3000+100, sum.TotalValue.InexactFloat64(), 1e-9)
	assert.InDelta(t, 500, sum.UnrealizedProfitLoss.InexactFloat64(), 1e-9)

	positions, err := l.book.GetPositions(ctx, "u1")
	require.NoError(t, err)
	for _, p := range positions {
		if p.Symbol == "SBER" {
			assert.True(t, p.CurrentPrice.Equal(dec("250")), "summary does not persist live marks")
		}
	}
}

func TestSummaryEmptyUser(t *testing.T) {
	l := newLedger(t)
	sum, err := l.summary.GetSummary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.AssetCount)
	assert.True(t, sum.TotalProfitLoss.IsZero())
	assert.True(t, sum.CashBalance.IsZero())
}

func TestRealizedPnL(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	tx := func(typ model.TransactionType, sym, qty, price, comm string) model.Transaction {
		n++
		return model.Transaction{Type: typ, Symbol: sym, Quantity: dec(qty), Price: dec(price), Commission: dec(comm),
			Timestamp: base.Add(time.Duration(n) * time.Second)}
	}
	trades := []model.Transaction{
		tx(model.TxSell, "BTC", "1", "100", "0"), // no earlier buy
		tx(model.TxBuy, "SBER", "10", "100", "1"),
		tx(model.TxSell, "SBER", "5", "120", "0.6"),
		tx(model.TxBuy, "SBER", "10", "130", "1.3"),
		tx(model.TxSell, "SBER", "5", "110", "0.55"),
		tx(model.TxBuy, "GAZP", "2", "50", "0"),
	}
	// first sell: 599.4 - 1001*5/10 = 98.9
	// second sell: 549.45 - 2302.3*5/20 = -26.125
	got := RealizedPnL(trades)
	assert.True(t, got.Equal(dec("72.775")), got.String())

	assert.True(t, RealizedPnL(nil).IsZero())
}

func TestRealizedPnLIgnoresBuysAtSellTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tx := func(typ model.TransactionType, qty, price string, ts time.Time) model.Transaction {
		return model.Transaction{Type: typ, Symbol: "SBER", Quantity: dec(qty), Price: dec(price), Commission: decimal.Zero, Timestamp: ts}
	}

	same := []model.Transaction{
		tx(model.TxBuy, "10", "100", at),
		tx(model.TxSell, "10", "150", at),
	}
	assert.True(t, RealizedPnL(same).IsZero(), RealizedPnL(same).String())

	// the buy at the sell's timestamp is excluded, the earlier one counts
	mixed := []model.Transaction{
		tx(model.TxBuy, "10", "100", at.Add(-time.Second)),
		tx(model.TxBuy, "10", "200", at),
		tx(model.TxSell, "10", "150", at),
		tx(model.TxSell, "5", "150", at.Add(time.Second)),
	}
	// 1500-1000 = 500, then avg over both buys 3000/20: 750-750 = 0
	got := RealizedPnL(mixed)
	assert.True(t, got.Equal(dec("500")), got.String())
}

func TestSummaryWithFixedClockRealizesNothingForSameInstantRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	l := newLedger(t, WithClock(func() time.Time { return at }), WithCommissionRate(decimal.Zero))
	l.trade(t, "u1", "SBER", model.SideBuy, "10", "100")
	res := l.trade(t, "u1", "SBER", model.SideSell, "10", "150")
	require.True(t, res.Closed)

	sum, err := l.summary.GetSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, sum.RealizedProfitLoss.IsZero(), sum.RealizedProfitLoss.String())
}
