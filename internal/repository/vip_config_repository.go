package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrVipConfigNotFound = errors.New("vip config not found")

// VipConfigRepository persists VIP tier definitions.
type VipConfigRepository interface {
	// Upsert writes the tier keyed by level.
	Upsert(ctx context.Context, cfg *model.VipConfig) error

	GetByLevel(ctx context.Context, level int) (*model.VipConfig, error)

	// ListAsc returns all tiers ordered by ascending min points.
	ListAsc(ctx context.Context) ([]*model.VipConfig, error)
}

type vipConfigRepository struct {
	*Repository
}

// NewVipConfigRepository creates a VIP config repository.
func NewVipConfigRepository(db *gorm.DB) VipConfigRepository {
	return &vipConfigRepository{Repository: NewRepository(db)}
}

func (r *vipConfigRepository) Upsert(ctx context.Context, cfg *model.VipConfig) error {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "min_points", "rebate_ratio_bonus", "updated_at",
		}),
	}).Create(cfg)
	if result.Error != nil {
		return fmt.Errorf("upsert vip config failed: %w", result.Error)
	}
	return nil
}

func (r *vipConfigRepository) GetByLevel(ctx context.Context, level int) (*model.VipConfig, error) {
	var cfg model.VipConfig
	result := r.DB(ctx).Where("level = ?", level).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrVipConfigNotFound
		}
		return nil, fmt.Errorf("get vip config failed: %w", result.Error)
	}
	return &cfg, nil
}

func (r *vipConfigRepository) ListAsc(ctx context.Context) ([]*model.VipConfig, error) {
	var configs []*model.VipConfig
	if err := r.DB(ctx).Order("min_points ASC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("list vip configs failed: %w", err)
	}
	return configs, nil
}
