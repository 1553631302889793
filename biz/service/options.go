package service

import (
	"context"
	"time"

	"portfolio-ledger/biz/dal/pg"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCommissionRate is charged on trade notional when no rate is configured.
var DefaultCommissionRate = decimal.RequireFromString("0.001")

type options struct {
	publisher      EventPublisher
	lockTimeout    time.Duration
	now            func() time.Time
	commissionRate decimal.Decimal
	oracle         PriceOracle
}

type Option func(*options)

func defaultOptions() options {
	return options{
		publisher:      NopPublisher{},
		now:            func() time.Time { return time.Now().UTC() },
		commissionRate: DefaultCommissionRate,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPublisher sets where committed ledger events go.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLockTimeout bounds row lock waits inside mutating transactions. Zero leaves the store default.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithCommissionRate(rate decimal.Decimal) Option {
	return func(o *options) {
		if !rate.IsNegative() {
			o.commissionRate = rate
		}
	}
}

// WithPriceOracle lets the summary revalue positions with live quotes.
func WithPriceOracle(oracle PriceOracle) Option {
	return func(o *options) { o.oracle = oracle }
}

// inTx runs fn in one transaction with the lock timeout applied. Store conflicts come back as
// errno.ErrTransactionConflict, everything fn returns rolls the transaction back.
func inTx(ctx context.Context, db *gorm.DB, lockTimeout time.Duration, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := pg.SetLockTimeout(tx, lockTimeout); err != nil {
			return err
		}
		return fn(tx)
	})
	return pg.TranslateError(err)
}
