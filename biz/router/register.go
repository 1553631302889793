package router

import (
	"portfolio-ledger/biz/handler"
	"portfolio-ledger/middleware"

	"github.com/cloudwego/hertz/pkg/app/server"
)

// Register mounts the ledger routes. Everything under /api requires a user identity.
func Register(r *server.Hertz, h *handler.LedgerHandler) {
	r.GET("/health", h.Health)

	api := r.Group("/api", middleware.Identity())

	capital := api.Group("/capital")
	capital.GET("", h.GetBalance)
	capital.PUT("/initial", h.SetInitialCapital)
	capital.POST("/deposit", h.Deposit)
	capital.POST("/withdraw", h.Withdraw)
	capital.GET("/available", h.GetAvailableCapital)

	api.GET("/positions", h.GetPositions)
	api.POST("/positions/refresh", h.RefreshPrices)
	api.POST("/trades", h.ApplyTrade)

	api.GET("/summary", h.GetSummary)
	api.GET("/transactions", h.ListTransactions)
}
