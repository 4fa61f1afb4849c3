package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
)

// DashboardStats is the operator overview.
type DashboardStats struct {
	TodayVolume        decimal.Decimal `json:"today_volume"`
	PendingBindings    int64           `json:"pending_bindings"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
}

// UserSummary is one user's account overview.
type UserSummary struct {
	Balance        decimal.Decimal `json:"balance"`
	BalanceFrozen  decimal.Decimal `json:"balance_frozen"`
	Points         int64           `json:"points"`
	VipLevel       int             `json:"vip_level"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	TotalRebate    decimal.Decimal `json:"total_rebate"`
	Rebate30d      decimal.Decimal `json:"rebate_30d"`
	PendingRebate  decimal.Decimal `json:"pending_rebate"`
	CheckInStreak  int             `json:"check_in_streak"`
}

// StatsService aggregates reporting figures for the dashboard and user
// summaries.
type StatsService struct {
	users       repository.UserRepository
	reports     repository.ReportRepository
	bindings    repository.BindingRepository
	withdrawals repository.WithdrawalRepository
	settlements repository.SettlementRepository
	logs        repository.TransactionLogRepository
}

// NewStatsService creates a stats service.
func NewStatsService(
	users repository.UserRepository,
	reports repository.ReportRepository,
	bindings repository.BindingRepository,
	withdrawals repository.WithdrawalRepository,
	settlements repository.SettlementRepository,
	logs repository.TransactionLogRepository,
) *StatsService {
	return &StatsService{
		users:       users,
		reports:     reports,
		bindings:    bindings,
		withdrawals: withdrawals,
		settlements: settlements,
		logs:        logs,
	}
}

// Dashboard returns the operator overview as of now.
func (s *StatsService) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	todayVolume, err := s.reports.SumVolumeSince(ctx, dateutil.StartOfDayUTC(now).UnixMilli())
	if err != nil {
		return nil, err
	}
	pendingBindings, err := s.bindings.CountByStatus(ctx, model.BindingStatusPending)
	if err != nil {
		return nil, err
	}
	pendingWithdrawals, err := s.withdrawals.CountByStatus(ctx, model.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TodayVolume:        todayVolume,
		PendingBindings:    pendingBindings,
		PendingWithdrawals: pendingWithdrawals,
	}, nil
}

// UserSummary returns one user's account overview as of now.
func (s *StatsService) UserSummary(ctx context.Context, userID int64, now time.Time) (*UserSummary, error) {
	user, err := s.users.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalVolume, err := s.reports.SumVolumeByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalRebate, err := s.logs.SumAmountByType(ctx, userID, model.TransactionTypeRebate, 0)
	if err != nil {
		return nil, err
	}
	since := now.AddDate(0, 0, -30).UnixMilli()
	rebate30d, err := s.logs.SumAmountByType(ctx, userID, model.TransactionTypeRebate, since)
	if err != nil {
		return nil, err
	}
	pending, err := s.settlements.SumScheduledByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserSummary{
		Balance:       user.Balance,
		BalanceFrozen: user.BalanceFrozen,
		Points:        user.Points,
		VipLevel:      user.VipLevel,
		TotalVolume:   totalVolume,
		TotalRebate:   totalRebate,
		Rebate30d:     rebate30d,
		PendingRebate: pending,
		CheckInStreak: user.CheckInStreak,
	}, nil
}
