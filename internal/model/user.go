package model

import (
	"github.com/shopspring/decimal"
)

// User is a referred platform user. The primary key is the external
// (messenger) account id, so rows are created on first authenticated
// contact and never deleted.
//
// Balance and BalanceFrozen are only ever mutated through the ledger
// service; Points only through check-in or admin adjustment.
type User struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	Balance        decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"balance"`
	BalanceFrozen  decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"balance_frozen"`
	Points         int64           `gorm:"type:bigint;not null;default:0" json:"points"`
	VipLevel       int             `gorm:"type:int;not null;default:1" json:"vip_level"`
	CheckInStreak  int             `gorm:"type:int;not null;default:0" json:"check_in_streak"`
	LastCheckInDay int64           `gorm:"type:bigint" json:"last_check_in_day"` // UTC day start, unix millis; 0 = never
	CreatedAt      int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt      int64           `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (User) TableName() string {
	return "users"
}
