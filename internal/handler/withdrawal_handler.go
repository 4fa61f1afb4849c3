package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/middleware"
	"github.com/tradeperk/rebate-engine/internal/service"
)

// WithdrawalHandler serves withdrawal creation and review.
type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

// NewWithdrawalHandler creates a withdrawal handler.
func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

type createWithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Address        string          `json:"address" binding:"required"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	request, err := h.withdrawals.CreateWithdrawal(
		c.Request.Context(), middleware.UserID(c), req.Amount, req.Address, req.IdempotencyKey)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, request)
}

// ListMine handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	page := parsePagination(c)
	requests, err := h.withdrawals.ListByUser(c.Request.Context(), middleware.UserID(c), page)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"items": requests, "total": page.Total})
}

// Approve handles POST /admin/v1/withdrawals/:id/approve.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	if err := h.withdrawals.Approve(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}

// Reject handles POST /admin/v1/withdrawals/:id/reject.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.withdrawals.Reject(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}

type markPaidRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// MarkPaid handles POST /admin/v1/withdrawals/:id/paid.
func (h *WithdrawalHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.withdrawals.MarkPaid(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.TxHash); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}
