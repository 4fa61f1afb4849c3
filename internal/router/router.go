// Package router wires the HTTP surface.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradeperk/rebate-engine/internal/config"
	"github.com/tradeperk/rebate-engine/internal/handler"
	"github.com/tradeperk/rebate-engine/internal/middleware"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// Handlers bundles the handler set for wiring.
type Handlers struct {
	User       *handler.UserHandler
	Binding    *handler.BindingHandler
	Withdrawal *handler.WithdrawalHandler
	Admin      *handler.AdminHandler
}

// New builds the gin engine with all routes and middleware.
func New(cfg *config.Config, h Handlers, nonces repository.NonceRepository) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", middleware.Auth(cfg.Auth.IdentitySecret))
	{
		api.GET("/me/summary", h.User.Summary)
		api.GET("/me/transactions", h.User.Transactions)
		api.POST("/checkin", h.User.CheckIn)
		api.GET("/community/invite", h.User.Invite)
		api.POST("/bindings", h.Binding.Create)
		api.POST("/withdrawals", h.Withdrawal.Create)
		api.GET("/withdrawals", h.Withdrawal.ListMine)
	}

	window := time.Duration(cfg.Auth.SignatureWindow) * time.Second
	admin := r.Group("/admin/v1",
		middleware.Auth(cfg.Auth.IdentitySecret),
		middleware.RequireAdmin(),
		middleware.Signature(cfg.Auth.SignatureSecret, window, nonces),
	)
	{
		admin.GET("/dashboard", h.Admin.Dashboard)

		admin.GET("/bindings/pending", h.Binding.ListPending)
		admin.POST("/bindings/:id/approve", h.Binding.Approve)
		admin.POST("/bindings/:id/reject", h.Binding.Reject)

		admin.POST("/imports/file", h.Admin.ImportFile)
		admin.POST("/imports/bridge/:exchange", h.Admin.ImportBridge)
		admin.POST("/settlements/run", h.Admin.RunSettlements)

		admin.POST("/withdrawals/:id/approve", h.Withdrawal.Approve)
		admin.POST("/withdrawals/:id/reject", h.Withdrawal.Reject)
		admin.POST("/withdrawals/:id/paid", h.Withdrawal.MarkPaid)

		admin.POST("/users/:id/adjust", h.Admin.AdjustUser)

		admin.GET("/configs", h.Admin.ListConfigs)
		admin.PUT("/configs", h.Admin.SetConfig)
		admin.GET("/vip-configs", h.Admin.ListVipConfigs)
		admin.PUT("/vip-configs", h.Admin.UpsertVipConfig)
	}

	return r
}
