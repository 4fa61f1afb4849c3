package service

import (
	"net/http"

	"github.com/tradeperk/rebate-engine/pkg/errs"
)

// Business errors surfaced through the HTTP layer.
var (
	ErrUIDNotEligible         = errs.NewWithStatus("UID_NOT_ELIGIBLE", "uid has no trade history on this exchange", http.StatusUnprocessableEntity)
	ErrAlreadyCheckedIn       = errs.NewWithStatus("ALREADY_CHECKED_IN", "already checked in today", http.StatusConflict)
	ErrBelowMinimumWithdrawal = errs.NewWithStatus("BELOW_MIN_WITHDRAWAL", "amount is below the minimum withdrawal", http.StatusBadRequest)
	ErrInsufficientBalance    = errs.NewWithStatus("INSUFFICIENT_BALANCE", "balance does not cover amount plus fee", http.StatusBadRequest)
	ErrInvalidAmount          = errs.NewWithStatus("INVALID_AMOUNT", "amount must be positive", http.StatusBadRequest)
)
