package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeperk/rebate-engine/internal/middleware"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/internal/service"
)

// UserHandler serves the authenticated user's own surface.
type UserHandler struct {
	stats     *service.StatsService
	checkins  *service.CheckInService
	community *service.CommunityService
	ledger    *service.LedgerService
}

// NewUserHandler creates a user handler.
func NewUserHandler(
	stats *service.StatsService,
	checkins *service.CheckInService,
	community *service.CommunityService,
	ledger *service.LedgerService,
) *UserHandler {
	return &UserHandler{stats: stats, checkins: checkins, community: community, ledger: ledger}
}

// Summary handles GET /api/v1/me/summary.
func (h *UserHandler) Summary(c *gin.Context) {
	summary, err := h.stats.UserSummary(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, summary)
}

// CheckIn handles POST /api/v1/checkin.
func (h *UserHandler) CheckIn(c *gin.Context) {
	result, err := h.checkins.CheckIn(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

// Invite handles GET /api/v1/community/invite.
func (h *UserHandler) Invite(c *gin.Context) {
	result, err := h.community.InviteLink(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

// Transactions handles GET /api/v1/me/transactions.
func (h *UserHandler) Transactions(c *gin.Context) {
	page := parsePagination(c)
	logs, err := h.ledger.History(c.Request.Context(), middleware.UserID(c), page)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"items": logs, "total": page.Total})
}

func parsePagination(c *gin.Context) *repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return &repository.Pagination{Page: page, PageSize: size}
}
