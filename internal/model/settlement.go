package model

import (
	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a rebate settlement.
type SettlementStatus string

const (
	SettlementStatusScheduled SettlementStatus = "SCHEDULED"
	// SettlementStatusSettled is terminal. A settled row is never
	// re-scheduled; a re-import of the same trade day updates the report
	// but leaves the settlement untouched.
	SettlementStatusSettled SettlementStatus = "SETTLED"
)

// RebateSettlement is the delayed crediting record for one trade report,
// one-to-one by ReportID.
type RebateSettlement struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID    string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"report_id"`
	UserID      int64            `gorm:"index;not null" json:"user_id"`
	TradeDay    int64            `gorm:"type:bigint;not null" json:"trade_day"` // UTC day start, unix millis
	Amount      decimal.Decimal  `gorm:"type:decimal(36,18);not null;default:0" json:"amount"`
	ScheduledAt int64            `gorm:"type:bigint;index;not null" json:"scheduled_at"` // unix millis
	Status      SettlementStatus `gorm:"type:varchar(16);index;not null;default:SCHEDULED" json:"status"`
	SettledAt   int64            `gorm:"type:bigint" json:"settled_at"`
	CreatedAt   int64            `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64            `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (RebateSettlement) TableName() string {
	return "rebate_settlements"
}
