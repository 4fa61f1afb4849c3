package model

import (
	"github.com/shopspring/decimal"
)

// VipConfig is one tier of the points-based VIP ladder. MinPoints
// thresholds must be strictly increasing across levels.
type VipConfig struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Level            int             `gorm:"uniqueIndex;not null" json:"level"`
	Name             string          `gorm:"type:varchar(64);not null" json:"name"`
	MinPoints        int64           `gorm:"type:bigint;not null" json:"min_points"`
	RebateRatioBonus decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"rebate_ratio_bonus"`
	CreatedAt        int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt        int64           `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (VipConfig) TableName() string {
	return "vip_configs"
}
