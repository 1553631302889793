package handler

import (
	"context"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// GetSummary GET /api/summary
func (h *LedgerHandler) GetSummary(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	sum, err := h.Summary.GetSummary(ctx, uid)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, sum)
}

// ListTransactions GET /api/transactions?limit=
func (h *LedgerHandler) ListTransactions(ctx context.Context, c *app.RequestContext) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	limit := parseLimit(c.Query("limit"), 0)
	txs, err := h.TxLog.List(ctx, uid, limit)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	c.JSON(consts.StatusOK, txs)
}

// Health GET /health
func (h *LedgerHandler) Health(ctx context.Context, c *app.RequestContext) {
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			c.JSON(consts.StatusServiceUnavailable, map[string]interface{}{"status": "down", "error": err.Error()})
			return
		}
	}
	c.JSON(consts.StatusOK, map[string]interface{}{"status": "ok"})
}
