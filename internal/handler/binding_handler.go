package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradeperk/rebate-engine/internal/middleware"
	"github.com/tradeperk/rebate-engine/internal/service"
)

// BindingHandler serves the UID binding workflow.
type BindingHandler struct {
	bindings *service.BindingService
}

// NewBindingHandler creates a binding handler.
func NewBindingHandler(bindings *service.BindingService) *BindingHandler {
	return &BindingHandler{bindings: bindings}
}

type createBindingRequest struct {
	Exchange string `json:"exchange" binding:"required"`
	UID      string `json:"uid" binding:"required"`
}

// Create handles POST /api/v1/bindings.
func (h *BindingHandler) Create(c *gin.Context) {
	var req createBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	binding, err := h.bindings.RequestBinding(c.Request.Context(), middleware.UserID(c), req.Exchange, req.UID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, binding)
}

// ListPending handles GET /admin/v1/bindings/pending.
func (h *BindingHandler) ListPending(c *gin.Context) {
	page := parsePagination(c)
	bindings, err := h.bindings.ListPending(c.Request.Context(), page)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"items": bindings, "total": page.Total})
}

// Approve handles POST /admin/v1/bindings/:id/approve.
func (h *BindingHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid binding id")
		return
	}
	if err := h.bindings.ApproveBinding(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /admin/v1/bindings/:id/reject.
func (h *BindingHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid binding id")
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.bindings.RejectBinding(c.Request.Context(), id, middleware.UserID(c), req.Reason); err != nil {
		Fail(c, err)
		return
	}
	OK(c, nil)
}
