package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Exchange{},
		&model.UserBinding{},
		&model.DailyTradeReport{},
		&model.RebateSettlement{},
		&model.TransactionLog{},
		&model.WithdrawalRequest{},
		&model.VipConfig{},
		&model.SystemConfig{},
		&model.ReplayNonce{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// SeedDefaults installs the starter VIP ladder when the table is empty.
// Operators reshape it through the admin surface afterwards.
func SeedDefaults(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.VipConfig{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count vip configs failed: %w", err)
	}
	if count > 0 {
		return nil
	}

	vipConfigs := repository.NewVipConfigRepository(db)
	ladder := []*model.VipConfig{
		{Level: 1, Name: "Bronze", MinPoints: 0, RebateRatioBonus: decimal.RequireFromString("0.05")},
		{Level: 2, Name: "Silver", MinPoints: 1000, RebateRatioBonus: decimal.RequireFromString("0.15")},
		{Level: 3, Name: "Gold", MinPoints: 5000, RebateRatioBonus: decimal.RequireFromString("0.25")},
	}
	for _, cfg := range ladder {
		if err := vipConfigs.Upsert(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}
