package service

import (
	"context"
	"fmt"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SummaryCalculator is a read-only aggregate over the cash ledger, the position book and the trade log.
type SummaryCalculator struct {
	cash      *CashLedger
	positions *PositionBook
	txLog     *TransactionLog
	opts      options
}

func NewSummaryCalculator(cash *CashLedger, positions *PositionBook, txLog *TransactionLog, opts ...Option) *SummaryCalculator {
	return &SummaryCalculator{cash: cash, positions: positions, txLog: txLog, opts: buildOptions(opts)}
}

// GetSummary derives totals for one user. With a price oracle configured, positions are marked to live
// quotes in memory; symbols without a quote keep their stored valuation. Nothing is written.
func (s *SummaryCalculator) GetSummary(ctx context.Context, userID string) (*model.PortfolioSummary, error) {
	positions, err := s.positions.GetPositions(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.markToMarket(ctx, positions)

	sum := &model.PortfolioSummary{
		TotalValue:                decimal.Zero,
		UnrealizedProfitLoss:      decimal.Zero,
		TotalProfitLossPercentage: decimal.Zero,
		AssetCount:                len(positions),
	}
	for i := range positions {
		sum.TotalValue = sum.TotalValue.Add(positions[i].TotalValue)
		sum.UnrealizedProfitLoss = sum.UnrealizedProfitLoss.Add(positions[i].ProfitLoss)
	}

	trades, err := s.txLog.ListTrades(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	sum.RealizedProfitLoss = RealizedPnL(trades)
	sum.TotalProfitLoss = sum.UnrealizedProfitLoss.Add(sum.RealizedProfitLoss)
	if sum.TotalValue.IsPositive() {
		sum.TotalProfitLossPercentage = sum.TotalProfitLoss.Div(sum.TotalValue).Mul(hundred)
	}

	sum.CashBalance, err = s.cash.GetAvailableCapital(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *SummaryCalculator) markToMarket(ctx context.Context, positions []model.Position) {
	if s.opts.oracle == nil || len(positions) == 0 {
		return
	}
	symbols := make([]string, len(positions))
	for i := range positions {
		symbols[i] = positions[i].Symbol
	}
	quotes, err := s.opts.oracle.GetPrices(ctx, symbols)
	if err != nil {
		hlog.CtxWarnf(ctx, "[Summary] live prices unavailable, using stored valuation: %v", err)
		return
	}
	for i := range positions {
		if q, ok := quotes[positions[i].Symbol]; ok && q.Price.IsPositive() {
			positions[i].Revalue(q.Price)
		}
	}
}
