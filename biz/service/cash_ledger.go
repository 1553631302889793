package service

import (
	"context"
	"errors"
	"fmt"

	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashLedger owns a user's capital row. Every mutation locks that row for the length of its transaction,
// which serializes cash and trade mutations of one user.
type CashLedger struct {
	db    *gorm.DB
	txLog *TransactionLog
	opts  options
}

func NewCashLedger(db *gorm.DB, txLog *TransactionLog, opts ...Option) *CashLedger {
	return &CashLedger{db: db, txLog: txLog, opts: buildOptions(opts)}
}

// GetBalance reads without locking. A user with no row gets a zero balance with Initialized() == false.
func (l *CashLedger) GetBalance(ctx context.Context, userID string) (*model.UserCapital, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	c, err := pg.GetCapital(l.db.WithContext(ctx), userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserCapital{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return c, nil
}

// SetInitialCapital overwrites both initial and current capital with amount.
// Whatever deposits, withdrawals and gains accumulated before are discarded.
func (l *CashLedger) SetInitialCapital(ctx context.Context, userID string, amount decimal.Decimal) (*model.UserCapital, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: initial capital must not be negative, got %s", errno.ErrInvalidAmount, amount)
	}
	if err := checkAmount("initial capital", amount); err != nil {
		return nil, err
	}
	var out *model.UserCapital
	now := l.opts.now()
	err := inTx(ctx, l.db, l.opts.lockTimeout, func(tx *gorm.DB) error {
		if _, err := pg.InsertCapitalIfAbsent(tx, userID, amount, now); err != nil {
			return err
		}
		c, err := pg.LockCapital(tx, userID)
		if err != nil {
			return err
		}
		c.InitialCapital = amount
		c.CurrentCapital = amount
		c.UpdatedAt = now
		if err := pg.UpdateCapital(tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set initial capital: %w", err)
	}
	hlog.CtxInfof(ctx, "[CashLedger] capital reset, user=%s, amount=%s", userID, amount)
	l.publish(ctx, model.EventCapitalReset, out, amount)
	return out, nil
}

// Deposit adds amount to current capital. The first deposit of a user creates the row with
// initial = current = amount.
func (l *CashLedger) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*model.UserCapital, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validatePositive("deposit", amount); err != nil {
		return nil, err
	}
	var out *model.UserCapital
	now := l.opts.now()
	err := inTx(ctx, l.db, l.opts.lockTimeout, func(tx *gorm.DB) error {
		created, err := pg.InsertCapitalIfAbsent(tx, userID, amount, now)
		if err != nil {
			return err
		}
		c, err := pg.LockCapital(tx, userID)
		if err != nil {
			return err
		}
		if !created {
			c.CurrentCapital = c.CurrentCapital.Add(amount)
			if err := checkAmount("balance", c.CurrentCapital); err != nil {
				return err
			}
			c.UpdatedAt = now
			if err := pg.UpdateCapital(tx, c); err != nil {
				return err
			}
		}
		entry := cashEntry(userID, model.TxDeposit, amount)
		entry.Timestamp = now
		if err := l.txLog.Append(tx, entry); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	l.publish(ctx, model.EventDeposit, out, amount)
	return out, nil
}

// Withdraw takes amount from current capital, failing with errno.ErrInsufficientFunds when the user has no
// row or not enough cash. A failed withdraw leaves the row untouched.
func (l *CashLedger) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*model.UserCapital, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validatePositive("withdraw", amount); err != nil {
		return nil, err
	}
	var out *model.UserCapital
	now := l.opts.now()
	err := inTx(ctx, l.db, l.opts.lockTimeout, func(tx *gorm.DB) error {
		c, err := pg.LockCapital(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no capital for user %s", errno.ErrInsufficientFunds, userID)
		}
		if err != nil {
			return err
		}
		if c.CurrentCapital.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", errno.ErrInsufficientFunds, c.CurrentCapital, amount)
		}
		c.CurrentCapital = c.CurrentCapital.Sub(amount)
		c.UpdatedAt = now
		if err := pg.UpdateCapital(tx, c); err != nil {
			return err
		}
		entry := cashEntry(userID, model.TxWithdraw, amount)
		entry.Timestamp = now
		if err := l.txLog.Append(tx, entry); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	l.publish(ctx, model.EventWithdraw, out, amount)
	return out, nil
}

// GetAvailableCapital is current capital minus the value held in positions, floored at zero.
func (l *CashLedger) GetAvailableCapital(ctx context.Context, userID string) (decimal.Decimal, error) {
	c, err := l.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	held, err := pg.SumPositionValue(l.db.WithContext(ctx), userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum positions: %w", err)
	}
	avail := c.CurrentCapital.Sub(held)
	if avail.IsNegative() {
		return decimal.Zero, nil
	}
	return avail, nil
}

func (l *CashLedger) publish(ctx context.Context, typ model.EventType, c *model.UserCapital, amount decimal.Decimal) {
	l.opts.publisher.Publish(ctx, model.LedgerEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		UserID:     c.UserID,
		Symbol:     model.CashSymbol,
		Quantity:   amount,
		Price:      decimal.NewFromInt(1),
		Amount:     amount,
		Balance:    c.CurrentCapital,
		OccurredAt: c.UpdatedAt,
	})
}
