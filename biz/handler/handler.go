package handler

import (
	"context"
	"fmt"
	"strconv"

	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/service"
	"portfolio-ledger/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Pinger reports store health.
type Pinger func(ctx context.Context) error

// LedgerHandler serves the ledger over HTTP. Refresher may be nil when no market data source is configured.
type LedgerHandler struct {
	Cash      *service.CashLedger
	Positions *service.PositionBook
	Summary   *service.SummaryCalculator
	TxLog     *service.TransactionLog
	Refresher service.PriceUpdater
	Ping      Pinger
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := errno.HTTPStatus(err)
	if status >= consts.StatusInternalServerError {
		hlog.CtxErrorf(ctx, "[Handler] %s %s: %v", c.Method(), c.Path(), err)
	}
	c.JSON(status, map[string]interface{}{"error": err.Error()})
}

// userID returns the caller set by middleware.Identity, answering 401 itself when it is missing.
func userID(c *app.RequestContext) (string, bool) {
	id := middleware.UserID(c)
	if id == "" {
		c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "missing user identity"})
		return "", false
	}
	return id, true
}

func parseLimit(limitStr string, defaultLimit int) int {
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func bindError(err error) error {
	return fmt.Errorf("%w: malformed request body: %v", errno.ErrInvalidArgument, err)
}
