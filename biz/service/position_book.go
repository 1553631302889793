package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PositionBook owns per-symbol holdings. Average price moves only on buys.
type PositionBook struct {
	db    *gorm.DB
	txLog *TransactionLog
	opts  options
}

func NewPositionBook(db *gorm.DB, txLog *TransactionLog, opts ...Option) *PositionBook {
	return &PositionBook{db: db, txLog: txLog, opts: buildOptions(opts)}
}

// TradeResult is the committed state after ApplyTrade. Closed means the sell emptied the position and the
// row is gone; Position then carries quantity zero.
type TradeResult struct {
	Position    *model.Position    `json:"position"`
	Transaction *model.Transaction `json:"transaction"`
	Closed      bool               `json:"closed"`
}

// GetPositions lists open positions, largest total value first.
func (b *PositionBook) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	positions, err := pg.ListPositions(b.db.WithContext(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

func (b *PositionBook) normalize(req model.TradeRequest) (model.TradeRequest, error) {
	if err := validateUser(req.UserID); err != nil {
		return req, err
	}
	sym, err := NormalizeSymbol(req.Symbol)
	if err != nil {
		return req, err
	}
	req.Symbol = sym
	req.Side = model.Side(strings.ToUpper(strings.TrimSpace(string(req.Side))))
	if req.Side != model.SideBuy && req.Side != model.SideSell {
		return req, fmt.Errorf("%w: trade type must be BUY or SELL, got %q", errno.ErrInvalidArgument, req.Side)
	}
	if req.AssetType == "" {
		req.AssetType = model.AssetStock
	}
	req.AssetType = model.AssetType(strings.ToLower(string(req.AssetType)))
	if !req.AssetType.Valid() {
		return req, fmt.Errorf("%w: unknown asset type %q", errno.ErrInvalidArgument, req.AssetType)
	}
	if err := validatePositive("quantity", req.Quantity); err != nil {
		return req, err
	}
	if err := validatePositive("price", req.Price); err != nil {
		return req, err
	}
	return req, nil
}

// ApplyTrade applies a BUY or SELL fill and appends its transaction in the same database transaction.
// Trades do not move cash, available capital is derived from position values instead.
func (b *PositionBook) ApplyTrade(ctx context.Context, req model.TradeRequest) (*TradeResult, error) {
	req, err := b.normalize(req)
	if err != nil {
		return nil, err
	}
	notional := req.Quantity.Mul(req.Price)
	if notional.Abs().GreaterThanOrEqual(maxAmount) {
		return nil, fmt.Errorf("%w: trade notional %s is out of range", errno.ErrInvalidAmount, notional)
	}
	now := b.opts.now()
	entry := &model.Transaction{
		UserID:      req.UserID,
		Symbol:      req.Symbol,
		AssetType:   req.AssetType,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Commission:  notional.Mul(b.opts.commissionRate).Round(amountScale),
		TotalAmount: notional.Round(amountScale),
		Timestamp:   now,
		Notes:       req.Notes,
	}

	res := &TradeResult{Transaction: entry}
	err = inTx(ctx, b.db, b.opts.lockTimeout, func(tx *gorm.DB) error {
		// the capital row is the per-user mutex, users without one still get the position row lock
		if _, err := pg.LockCapital(tx, req.UserID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		pos, err := pg.LockPosition(tx, req.UserID, req.Symbol)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pos = nil
		}

		switch req.Side {
		case model.SideBuy:
			entry.Type = model.TxBuy
			res.Position, err = b.buy(tx, pos, req, now)
		case model.SideSell:
			entry.Type = model.TxSell
			res.Position, res.Closed, err = b.sell(tx, pos, req, now)
		}
		if err != nil {
			return err
		}
		return b.txLog.Append(tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("apply %s %s: %w", strings.ToLower(string(req.Side)), req.Symbol, err)
	}

	hlog.CtxInfof(ctx, "[PositionBook] %s user=%s symbol=%s qty=%s price=%s closed=%v",
		req.Side, req.UserID, req.Symbol, req.Quantity, req.Price, res.Closed)
	b.publish(ctx, res)
	return res, nil
}

func (b *PositionBook) buy(tx *gorm.DB, pos *model.Position, req model.TradeRequest, now time.Time) (*model.Position, error) {
	if pos == nil {
		pos = &model.Position{
			UserID:       req.UserID,
			Symbol:       req.Symbol,
			AssetType:    req.AssetType,
			Quantity:     req.Quantity,
			AveragePrice: req.Price,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		pos.Revalue(req.Price)
		if err := pg.CreatePosition(tx, pos); err != nil {
			return nil, err
		}
		return pos, nil
	}
	newQty := pos.Quantity.Add(req.Quantity)
	if err := checkAmount("quantity", newQty); err != nil {
		return nil, err
	}
	pos.AveragePrice = pos.AveragePrice.Mul(pos.Quantity).Add(req.Price.Mul(req.Quantity)).Div(newQty).Round(amountScale)
	pos.Quantity = newQty
	pos.UpdatedAt = now
	pos.Revalue(req.Price)
	if err := pg.SavePosition(tx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

func (b *PositionBook) sell(tx *gorm.DB, pos *model.Position, req model.TradeRequest, now time.Time) (*model.Position, bool, error) {
	if pos == nil {
		return nil, false, fmt.Errorf("%w: no %s position", errno.ErrInsufficientAssets, req.Symbol)
	}
	if pos.Quantity.LessThan(req.Quantity) {
		return nil, false, fmt.Errorf("%w: holding %s %s, selling %s",
			errno.ErrInsufficientAssets, pos.Quantity, req.Symbol, req.Quantity)
	}
	pos.Quantity = pos.Quantity.Sub(req.Quantity)
	pos.UpdatedAt = now
	pos.Revalue(req.Price)
	if pos.Quantity.IsZero() {
		if err := pg.DeletePosition(tx, pos.ID); err != nil {
			return nil, false, err
		}
		return pos, true, nil
	}
	if err := pg.SavePosition(tx, pos); err != nil {
		return nil, false, err
	}
	return pos, false, nil
}

func (b *PositionBook) publish(ctx context.Context, res *TradeResult) {
	t := res.Transaction
	typ := model.EventBuy
	if t.Type == model.TxSell {
		typ = model.EventSell
	}
	ev := model.LedgerEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		UserID:     t.UserID,
		Symbol:     t.Symbol,
		Quantity:   t.Quantity,
		Price:      t.Price,
		Amount:     t.TotalAmount,
		Balance:    res.Position.Quantity,
		OccurredAt: t.Timestamp,
	}
	b.opts.publisher.Publish(ctx, ev)
	if res.Closed {
		ev.EventID = uuid.NewString()
		ev.Type = model.EventPositionClose
		b.opts.publisher.Publish(ctx, ev)
	}
}
