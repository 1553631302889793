package handler

import (
	"context"

	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// GetPositions GET /api/positions
func (h *LedgerHandler) GetPositions(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	positions, err := h.Positions.GetPositions(ctx, uid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	c.JSON(consts.StatusOK, positions)
}

// ApplyTrade POST /api/trades
func (h *LedgerHandler) ApplyTrade(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req model.TradeRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(ctx, c, bindError(err))
		return
	}
	req.UserID = uid
	res, err := h.Positions.ApplyTrade(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, res)
}

// RefreshPrices POST /api/positions/refresh runs one valuation sweep over all users.
func (h *LedgerHandler) RefreshPrices(ctx context.Context, c *app.RequestContext) {
	if h.Refresher == nil {
		writeError(ctx, c, errno.ErrPriceUnavailable)
		return
	}
	report, err := h.Refresher.UpdatePrices(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, report)
}
