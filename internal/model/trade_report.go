package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRow is one normalized ingested trade record before persistence,
// produced by the file parser or the bridge client.
type TradeRow struct {
	Exchange   string
	UID        string
	TradeDay   time.Time
	Volume     decimal.Decimal
	FeeRate    decimal.Decimal // as reported, not yet normalized
	AutoRebate decimal.Decimal
	Raw        map[string]interface{}
}

// DailyTradeReport is the canonical daily trade row for one user on one
// exchange. Unique per (exchange, user, UTC trade day); re-ingesting the
// same day replaces volume/fee/rebate figures rather than accumulating.
type DailyTradeReport struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"report_id"`
	ExchangeID   int64           `gorm:"uniqueIndex:uk_exchange_user_day;not null" json:"exchange_id"`
	UserID       int64           `gorm:"uniqueIndex:uk_exchange_user_day;index;not null" json:"user_id"`
	TradeDay     int64           `gorm:"uniqueIndex:uk_exchange_user_day;not null" json:"trade_day"` // UTC day start, unix millis
	TradeVolume  decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"trade_volume"`
	BaseFeeRate  decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"base_fee_rate"` // normalized fraction <= 1
	AutoRebate   decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"auto_rebate"`
	ManualRebate decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"manual_rebate"`
	Source       string          `gorm:"type:varchar(64);not null" json:"source"`
	Raw          string          `gorm:"type:text" json:"raw"` // JSON snapshot of the ingested row
	CreatedAt    int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64           `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (DailyTradeReport) TableName() string {
	return "daily_trade_reports"
}
