package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/ingest"
	"github.com/tradeperk/rebate-engine/internal/middleware"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/service"
)

// AdminHandler serves operator endpoints: ingestion, settlement runs,
// adjustments and configuration.
type AdminHandler struct {
	imports     *service.ImportService
	settlements *service.SettlementService
	users       *service.UserService
	stats       *service.StatsService
	config      *service.ConfigService
	vip         *service.VipService
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(
	imports *service.ImportService,
	settlements *service.SettlementService,
	users *service.UserService,
	stats *service.StatsService,
	config *service.ConfigService,
	vip *service.VipService,
) *AdminHandler {
	return &AdminHandler{
		imports:     imports,
		settlements: settlements,
		users:       users,
		stats:       stats,
		config:      config,
		vip:         vip,
	}
}

// ImportFile handles POST /admin/v1/imports/file (multipart "file").
func (h *AdminHandler) ImportFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		Fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, 50<<20))
	if err != nil {
		Fail(c, err)
		return
	}

	rows, err := ingest.ParseTradeFile(data, fileHeader.Filename)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	summary, err := h.imports.ImportTradeRows(c.Request.Context(), rows, "file:"+fileHeader.Filename)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, summary)
}

// ImportBridge handles POST /admin/v1/imports/bridge/:exchange. Window
// bounds come from unix-milli query params; default is the last 24 hours.
func (h *AdminHandler) ImportBridge(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)
	if v := c.Query("from"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "invalid from")
			return
		}
		from = time.UnixMilli(ms)
	}
	if v := c.Query("to"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "invalid to")
			return
		}
		to = time.UnixMilli(ms)
	}

	summary, err := h.imports.SyncFromBridge(c.Request.Context(), c.Param("exchange"), from, to)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, summary)
}

// RunSettlements handles POST /admin/v1/settlements/run.
func (h *AdminHandler) RunSettlements(c *gin.Context) {
	result, err := h.settlements.SettleDueRebates(c.Request.Context(), time.Now())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

type adjustUserRequest struct {
	BalanceDelta decimal.Decimal `json:"balance_delta"`
	PointsDelta  int64           `json:"points_delta"`
	Remark       string          `json:"remark"`
}

// AdjustUser handles POST /admin/v1/users/:id/adjust.
func (h *AdminHandler) AdjustUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid user id")
		return
	}
	var req adjustUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	user, err := h.users.Adjust(c.Request.Context(), userID, req.BalanceDelta, req.PointsDelta, middleware.UserID(c), req.Remark)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, user)
}

// Dashboard handles GET /admin/v1/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context(), time.Now())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, stats)
}

// ListConfigs handles GET /admin/v1/configs.
func (h *AdminHandler) ListConfigs(c *gin.Context) {
	configs, err := h.config.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, configs)
}

type setConfigRequest struct {
	Key    string `json:"key" binding:"required"`
	Value  string `json:"value" binding:"required"`
	Remark string `json:"remark"`
}

// SetConfig handles PUT /admin/v1/configs.
func (h *AdminHandler) SetConfig(c *gin.Context) {
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.config.Set(c.Request.Context(), req.Key, req.Value, req.Remark, middleware.UserID(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}

// ListVipConfigs handles GET /admin/v1/vip-configs.
func (h *AdminHandler) ListVipConfigs(c *gin.Context) {
	configs, err := h.vip.ListConfigs(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, configs)
}

// UpsertVipConfig handles PUT /admin/v1/vip-configs.
func (h *AdminHandler) UpsertVipConfig(c *gin.Context) {
	var cfg model.VipConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if cfg.Level < 1 {
		BadRequest(c, "level must be >= 1")
		return
	}
	if err := h.vip.UpsertConfig(c.Request.Context(), &cfg); err != nil {
		Fail(c, err)
		return
	}
	OK(c, cfg)
}
