package handler

import (
	"context"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type availableResponse struct {
	UserID    string          `json:"user_id"`
	Available decimal.Decimal `json:"available_capital"`
}

// GetBalance GET /api/capital
func (h *LedgerHandler) GetBalance(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	balance, err := h.Cash.GetBalance(ctx, uid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, balance)
}

// SetInitialCapital PUT /api/capital/initial
func (h *LedgerHandler) SetInitialCapital(ctx context.Context, c *app.RequestContext) {
	h.mutateCash(ctx, c, h.Cash.SetInitialCapital)
}

// Deposit POST /api/capital/deposit
func (h *LedgerHandler) Deposit(ctx context.Context, c *app.RequestContext) {
	h.mutateCash(ctx, c, h.Cash.Deposit)
}

// Withdraw POST /api/capital/withdraw
func (h *LedgerHandler) Withdraw(ctx context.Context, c *app.RequestContext) {
	h.mutateCash(ctx, c, h.Cash.Withdraw)
}

func (h *LedgerHandler) mutateCash(ctx context.Context, c *app.RequestContext,
	op func(context.Context, string, decimal.Decimal) (*model.UserCapital, error)) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(ctx, c, bindError(err))
		return
	}
	balance, err := op(ctx, uid, req.Amount)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, balance)
}

// GetAvailableCapital GET /api/capital/available
func (h *LedgerHandler) GetAvailableCapital(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	avail, err := h.Cash.GetAvailableCapital(ctx, uid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, availableResponse{UserID: uid, Available: avail})
}
