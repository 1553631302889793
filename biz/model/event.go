package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventDeposit       EventType = "deposit"
	EventWithdraw      EventType = "withdraw"
	EventCapitalReset  EventType = "capital_reset"
	EventBuy           EventType = "buy"
	EventSell          EventType = "sell"
	EventPositionClose EventType = "position_closed"
)

// LedgerEvent is published after a mutation commits.
type LedgerEvent struct {
	EventID    string          `json:"event_id"`
	Type       EventType       `json:"type"`
	UserID     string          `json:"user_id"`
	Symbol     string          `json:"symbol,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}
