package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"portfolio-ledger/biz/dal/pg/pgtest"
	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stepClock advances one second per reading so ledger rows get distinct timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.LedgerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type ledger struct {
	db        *gorm.DB
	txLog     *TransactionLog
	cash      *CashLedger
	book      *PositionBook
	summary   *SummaryCalculator
	publisher *recordingPublisher
}

func newLedger(t *testing.T, extra ...Option) *ledger {
	t.Helper()
	db := pgtest.NewDB(t)
	pub := &recordingPublisher{}
	opts := append([]Option{WithClock(newStepClock().Now), WithPublisher(pub)}, extra...)
	txLog := NewTransactionLog(db, 50, 500)
	cash := NewCashLedger(db, txLog, opts...)
	book := NewPositionBook(db, txLog, opts...)
	return &ledger{
		db:        db,
		txLog:     txLog,
		cash:      cash,
		book:      book,
		summary:   NewSummaryCalculator(cash, book, txLog, opts...),
		publisher: pub,
	}
}

func (l *ledger) trade(t *testing.T, user, symbol string, side model.Side, qty, price string) *TradeResult {
	t.Helper()
	res, err := l.book.ApplyTrade(context.Background(), model.TradeRequest{
		UserID:   user,
		Symbol:   symbol,
		Side:     side,
		Quantity: dec(qty),
		Price:    dec(price),
	})
	if err != nil {
		t.Fatalf("trade %s %s %s@%s: %v", side, symbol, qty, price, err)
	}
	return res
}
