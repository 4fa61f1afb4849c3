package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
)

// CheckInResult reports one successful daily check-in.
type CheckInResult struct {
	PointsAwarded int64 `json:"points_awarded"`
	Streak        int   `json:"streak"`
	TotalPoints   int64 `json:"total_points"`
}

// CheckInService awards daily check-in points with a streak bonus.
type CheckInService struct {
	users  repository.UserRepository
	ledger *LedgerService
	vip    *VipService
	config *ConfigService
}

// NewCheckInService creates a check-in service.
func NewCheckInService(users repository.UserRepository, ledger *LedgerService, vip *VipService, config *ConfigService) *CheckInService {
	return &CheckInService{users: users, ledger: ledger, vip: vip, config: config}
}

// CheckIn awards the user today's points. One check-in per UTC day; a
// check-in on the day after the previous one extends the streak, any gap
// resets it. Award is base + (streak-1) * step.
func (s *CheckInService) CheckIn(ctx context.Context, userID int64, now time.Time) (*CheckInResult, error) {
	if _, err := s.users.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	base := int64(s.config.GetNumber(ctx, model.ConfigKeyCheckInBasePoints, 5))
	step := int64(s.config.GetNumber(ctx, model.ConfigKeyCheckInStreakStep, 2))
	today := dateutil.StartOfDayUTC(now)

	var result *CheckInResult
	err := s.ledger.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.users.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if user.LastCheckInDay == today.UnixMilli() {
			return ErrAlreadyCheckedIn
		}

		streak := 1
		yesterday := dateutil.AddDaysUTC(today, -1)
		if user.LastCheckInDay == yesterday.UnixMilli() {
			streak = user.CheckInStreak + 1
		}
		award := base + int64(streak-1)*step

		user.CheckInStreak = streak
		user.LastCheckInDay = today.UnixMilli()
		if err := s.users.Save(ctx, user); err != nil {
			return err
		}

		updated, err := s.ledger.Apply(ctx, Mutation{
			UserID:      userID,
			Type:        model.TransactionTypeCheckIn,
			PointsDelta: award,
			Meta:        fmt.Sprintf(`{"streak":%d}`, streak),
		})
		if err != nil {
			return err
		}

		result = &CheckInResult{
			PointsAwarded: award,
			Streak:        streak,
			TotalPoints:   updated.Points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.vip.SyncVipLevel(ctx, userID); err != nil {
		return nil, err
	}
	return result, nil
}
