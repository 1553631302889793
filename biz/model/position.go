package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetStock    AssetType = "stock"
	AssetCrypto   AssetType = "crypto"
	AssetCurrency AssetType = "currency"
)

func (a AssetType) Valid() bool {
	switch a {
	case AssetStock, AssetCrypto, AssetCurrency:
		return true
	}
	return false
}

// Position is a holding, unique per (user_id, symbol). Rows are hard-deleted once quantity reaches zero.
type Position struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID            string          `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_portfolio_user_symbol,priority:1" json:"user_id"`
	Symbol            string          `gorm:"column:symbol;size:32;not null;uniqueIndex:idx_portfolio_user_symbol,priority:2;index:idx_portfolio_symbol" json:"symbol"`
	AssetType         AssetType       `gorm:"column:asset_type;size:16;not null" json:"asset_type"`
	Quantity          decimal.Decimal `gorm:"column:quantity;type:numeric(30,10);not null" json:"quantity"`
	AveragePrice      decimal.Decimal `gorm:"column:average_price;type:numeric(30,10);not null" json:"average_price"`
	CurrentPrice      decimal.Decimal `gorm:"column:current_price;type:numeric(30,10);not null;default:0" json:"current_price"`
	TotalValue        decimal.Decimal `gorm:"column:total_value;type:numeric(30,10);not null;default:0" json:"total_value"`
	ProfitLoss        decimal.Decimal `gorm:"column:profit_loss;type:numeric(30,10);not null;default:0" json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `gorm:"column:profit_loss_percent;type:numeric(30,10);not null;default:0" json:"profit_loss_percent"`
	CreatedAt         time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Position) TableName() string {
	return "portfolio"
}

// CostBasis is quantity times average price.
func (p *Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AveragePrice)
}

// Revalue recomputes the cached valuation fields against price.
func (p *Position) Revalue(price decimal.Decimal) {
	p.CurrentPrice = price
	p.TotalValue = p.Quantity.Mul(price)
	cost := p.CostBasis()
	p.ProfitLoss = p.TotalValue.Sub(cost)
	if cost.IsPositive() {
		p.ProfitLossPercent = p.ProfitLoss.Div(cost).Mul(decimal.NewFromInt(100))
	} else {
		p.ProfitLossPercent = decimal.Zero
	}
}
