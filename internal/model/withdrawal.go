package model

import (
	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the state of a withdrawal request.
// Transitions: PENDING -> APPROVED -> PAID, or PENDING -> REJECTED.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
	WithdrawalStatusPaid     WithdrawalStatus = "PAID"
)

// IsTerminal reports whether the status admits no further transitions.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusRejected || s == WithdrawalStatusPaid
}

// WithdrawalRequest is an escrow-backed withdrawal. Amount is held in the
// user's frozen balance until the request is rejected (refund) or paid
// (escrow released for good). The fee is debited up front and only
// returned on rejection.
type WithdrawalRequest struct {
	ID             int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalID   string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_id"`
	UserID         int64            `gorm:"index;not null" json:"user_id"`
	Amount         decimal.Decimal  `gorm:"type:decimal(36,18);not null" json:"amount"`
	Fee            decimal.Decimal  `gorm:"type:decimal(36,18);not null;default:0" json:"fee"`
	Address        string           `gorm:"type:varchar(256);not null" json:"address"`
	Status         WithdrawalStatus `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	IdempotencyKey *string          `gorm:"type:varchar(128);uniqueIndex" json:"idempotency_key,omitempty"`
	TxHash         string           `gorm:"type:varchar(128)" json:"tx_hash"`
	Memo           string           `gorm:"type:varchar(255)" json:"memo"`
	ReviewedBy     int64            `gorm:"type:bigint" json:"reviewed_by"`
	ApprovedAt     int64            `gorm:"type:bigint" json:"approved_at"`
	CompletedAt    int64            `gorm:"type:bigint" json:"completed_at"`
	CreatedAt      int64            `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt      int64            `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// Total is the full deduction for this request (amount plus fee).
func (w *WithdrawalRequest) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}
