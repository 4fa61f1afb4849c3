package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrConfigNotFound = errors.New("system config not found")

// SystemConfigRepository persists runtime key/value configuration.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (*model.SystemConfig, error)

	// Set upserts the value for a key.
	Set(ctx context.Context, cfg *model.SystemConfig) error

	List(ctx context.Context) ([]*model.SystemConfig, error)
}

type systemConfigRepository struct {
	*Repository
}

// NewSystemConfigRepository creates a system config repository.
func NewSystemConfigRepository(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepository{Repository: NewRepository(db)}
}

func (r *systemConfigRepository) Get(ctx context.Context, key string) (*model.SystemConfig, error) {
	var cfg model.SystemConfig
	result := r.DB(ctx).Where("config_key = ?", key).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("get system config failed: %w", result.Error)
	}
	return &cfg, nil
}

func (r *systemConfigRepository) Set(ctx context.Context, cfg *model.SystemConfig) error {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"config_value", "remark", "updated_by", "updated_at",
		}),
	}).Create(cfg)
	if result.Error != nil {
		return fmt.Errorf("set system config failed: %w", result.Error)
	}
	return nil
}

func (r *systemConfigRepository) List(ctx context.Context) ([]*model.SystemConfig, error) {
	var configs []*model.SystemConfig
	if err := r.DB(ctx).Order("config_key ASC").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("list system configs failed: %w", err)
	}
	return configs, nil
}
