package model

import (
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypeCheckIn    TransactionType = "CHECKIN"
	TransactionTypeRebate     TransactionType = "REBATE"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// TransactionLog is the append-only audit trail of user balance and points
// movements. Rows are never updated or deleted.
//
// BalanceDelta records the net spendable-balance change of the paired
// mutation, so for every user the sum of BalanceDelta always equals the
// current Balance. Escrow movements that leave Balance untouched (marking
// a withdrawal paid) log a zero delta.
type TransactionLog struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64           `gorm:"index;not null" json:"user_id"`
	Type         TransactionType `gorm:"type:varchar(16);index;not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"amount"`
	BalanceDelta decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"balance_delta"`
	PointsDelta  int64           `gorm:"type:bigint;not null;default:0" json:"points_delta"`
	ReferenceID  string          `gorm:"type:varchar(64);index" json:"reference_id"` // causing entity (report, withdrawal, ...)
	Meta         string          `gorm:"type:text" json:"meta"`                      // free-form JSON
	CreatedAt    int64           `gorm:"type:bigint;not null;autoCreateTime:milli;index" json:"created_at"`
}

// TableName returns the table name.
func (TransactionLog) TableName() string {
	return "transaction_logs"
}
