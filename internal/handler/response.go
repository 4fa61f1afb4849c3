package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/bridge"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/errs"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// Response is the uniform JSON envelope.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: "OK", Data: data})
}

// BadRequest writes a 400 envelope for malformed input.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: "BAD_REQUEST", Message: message})
}

// Fail maps an error to its envelope. Business errors carry their own code
// and status; known infrastructure sentinels get stable mappings; anything
// else is a logged 500.
func Fail(c *gin.Context, err error) {
	if e, ok := errs.AsError(err); ok {
		c.JSON(e.HTTPStatus, Response{Code: e.Code, Message: e.Message})
		return
	}

	var unsupported *model.UnsupportedExchangeError
	if errors.As(err, &unsupported) {
		c.JSON(http.StatusBadRequest, Response{Code: "UNSUPPORTED_EXCHANGE", Message: unsupported.Error()})
		return
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrBindingNotFound),
		errors.Is(err, repository.ErrWithdrawalNotFound),
		errors.Is(err, repository.ErrReportNotFound),
		errors.Is(err, repository.ErrSettlementNotFound):
		c.JSON(http.StatusNotFound, Response{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, repository.ErrWithdrawalStateConflict),
		errors.Is(err, repository.ErrSettlementNotScheduled):
		c.JSON(http.StatusConflict, Response{Code: "STATE_CONFLICT", Message: err.Error()})
	case errors.Is(err, bridge.ErrBridgeConfigMissing),
		errors.Is(err, bridge.ErrBridgeRequestFailed):
		c.JSON(http.StatusBadGateway, Response{Code: "BRIDGE_UNAVAILABLE", Message: err.Error()})
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Code: "INTERNAL", Message: "internal error"})
	}
}
