package model

import "github.com/shopspring/decimal"

type PortfolioSummary struct {
	TotalValue                decimal.Decimal `json:"total_value"`
	TotalProfitLoss           decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercentage decimal.Decimal `json:"total_profit_loss_percentage"`
	AssetCount                int             `json:"asset_count"`
	UnrealizedProfitLoss      decimal.Decimal `json:"unrealized_profit_loss"`
	RealizedProfitLoss        decimal.Decimal `json:"realized_profit_loss"`
	CashBalance               decimal.Decimal `json:"cash_balance"`
}

// RefreshReport summarizes one valuation sweep.
type RefreshReport struct {
	Symbols int      `json:"symbols"`
	Updated int64    `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}
