package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxBuy      TransactionType = "buy"
	TxSell     TransactionType = "sell"
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
)

const (
	TxStatusCompleted = "completed"

	// CashSymbol is the symbol deposits and withdrawals are logged under.
	CashSymbol = "CASH"
)

// Transaction is an append-only ledger record. Ledger order is (timestamp, id).
type Transaction struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID      string          `gorm:"column:user_id;size:64;not null;index:idx_tx_user_symbol_ts,priority:1" json:"user_id"`
	Symbol      string          `gorm:"column:symbol;size:32;not null;index:idx_tx_user_symbol_ts,priority:2" json:"symbol"`
	AssetType   AssetType       `gorm:"column:asset_type;size:16;not null" json:"asset_type"`
	Type        TransactionType `gorm:"column:transaction_type;size:16;not null" json:"type"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(30,10);not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(30,10);not null" json:"price"`
	Commission  decimal.Decimal `gorm:"column:commission;type:numeric(30,10);not null;default:0" json:"commission"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(30,10);not null" json:"total_amount"`
	Status      string          `gorm:"column:status;size:16;not null" json:"status"`
	Timestamp   time.Time       `gorm:"column:timestamp;not null;index:idx_tx_user_symbol_ts,priority:3" json:"timestamp"`
	Notes       string          `gorm:"column:notes" json:"notes,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Side of a trade request.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRequest is the input of PositionBook.ApplyTrade.
type TradeRequest struct {
	UserID    string          `json:"-"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AssetType AssetType       `json:"asset_type"`
	Notes     string          `json:"notes,omitempty"`
}
