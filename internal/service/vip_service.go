package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// VipService resolves users onto the points-based VIP ladder.
type VipService struct {
	users      repository.UserRepository
	vipConfigs repository.VipConfigRepository
}

// NewVipService creates a VIP service.
func NewVipService(users repository.UserRepository, vipConfigs repository.VipConfigRepository) *VipService {
	return &VipService{users: users, vipConfigs: vipConfigs}
}

// ResolveLevel returns the highest level whose MinPoints threshold the
// points reach. Level 1 when no tier matches or no tiers exist.
func ResolveLevel(points int64, configs []*model.VipConfig) int {
	level := 1
	best := int64(-1)
	for _, cfg := range configs {
		if points >= cfg.MinPoints && cfg.MinPoints >= best {
			best = cfg.MinPoints
			level = cfg.Level
		}
	}
	return level
}

// SyncVipLevel recomputes the user's level from current points and
// persists it only when it changed.
func (s *VipService) SyncVipLevel(ctx context.Context, userID int64) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	configs, err := s.vipConfigs.ListAsc(ctx)
	if err != nil {
		return err
	}

	level := ResolveLevel(user.Points, configs)
	if level == user.VipLevel {
		return nil
	}

	logger.Info("vip level changed",
		zap.Int64("user_id", userID),
		zap.Int("from", user.VipLevel),
		zap.Int("to", level))
	return s.users.UpdateVipLevel(ctx, userID, level)
}

// BonusRatio returns the rebate bonus of the user's current tier. Missing
// user or missing tier config yield a zero ratio rather than an error, so
// ingestion never stalls on ladder misconfiguration.
func (s *VipService) BonusRatio(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	cfg, err := s.vipConfigs.GetByLevel(ctx, user.VipLevel)
	if err != nil {
		if errors.Is(err, repository.ErrVipConfigNotFound) {
			logger.Warn("no vip config for level", zap.Int("level", user.VipLevel))
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return cfg.RebateRatioBonus, nil
}

// ListConfigs returns the ladder ordered by ascending threshold.
func (s *VipService) ListConfigs(ctx context.Context) ([]*model.VipConfig, error) {
	return s.vipConfigs.ListAsc(ctx)
}

// UpsertConfig writes one tier definition.
func (s *VipService) UpsertConfig(ctx context.Context, cfg *model.VipConfig) error {
	return s.vipConfigs.Upsert(ctx, cfg)
}
