package service

import (
	"context"
	"fmt"
	"time"

	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionLog is the append-only audit trail of cash and asset movements.
type TransactionLog struct {
	db           *gorm.DB
	defaultLimit int
	maxLimit     int
}

func NewTransactionLog(db *gorm.DB, defaultLimit, maxLimit int) *TransactionLog {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &TransactionLog{db: db, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Append writes t inside tx. Callers hold the user's capital lock.
func (l *TransactionLog) Append(tx *gorm.DB, t *model.Transaction) error {
	if t.Status == "" {
		t.Status = model.TxStatusCompleted
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if err := pg.InsertTransaction(tx, t); err != nil {
		return fmt.Errorf("append %s transaction: %w", t.Type, err)
	}
	return nil
}

// List returns the newest transactions first. limit <= 0 means the default, larger values are capped.
func (l *TransactionLog) List(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = l.defaultLimit
	}
	if limit > l.maxLimit {
		limit = l.maxLimit
	}
	return pg.ListTransactions(l.db.WithContext(ctx), userID, limit)
}

// ListTrades returns buy and sell rows oldest first, ties broken by id.
func (l *TransactionLog) ListTrades(ctx context.Context, userID string) ([]model.Transaction, error) {
	return pg.ListTrades(l.db.WithContext(ctx), userID)
}

func cashEntry(userID string, typ model.TransactionType, amount decimal.Decimal) *model.Transaction {
	return &model.Transaction{
		UserID:      userID,
		Symbol:      model.CashSymbol,
		AssetType:   model.AssetCurrency,
		Type:        typ,
		Quantity:    amount,
		Price:       decimal.NewFromInt(1),
		Commission:  decimal.Zero,
		TotalAmount: amount,
	}
}
