package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a market price as supplied by a price oracle.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
