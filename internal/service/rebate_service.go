package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
)

var one = decimal.NewFromInt(1)

// RebateService computes manual rebates and schedules their delayed
// crediting.
type RebateService struct {
	vip         *VipService
	settlements repository.SettlementRepository
	config      *ConfigService
}

// NewRebateService creates a rebate service.
func NewRebateService(vip *VipService, settlements repository.SettlementRepository, config *ConfigService) *RebateService {
	return &RebateService{vip: vip, settlements: settlements, config: config}
}

// NormalizeRate folds percent-style rates into fractions: a rate above 1
// was entered as a percentage and is divided by 100. Upstream sheets mix
// both conventions.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(one) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// ComputeManualRebate returns volume * normalizedRate * bonusRatio using
// the user's bonus ratio at computation time. Later VIP changes do not
// retroactively reprice existing reports.
func (s *RebateService) ComputeManualRebate(ctx context.Context, userID int64, volume, rate decimal.Decimal) (decimal.Decimal, error) {
	bonus, err := s.vip.BonusRatio(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return volume.Mul(NormalizeRate(rate)).Mul(bonus), nil
}

// ScheduleSettlement upserts the SCHEDULED settlement for a report, due at
// the configured hour of the UTC day after the trade day. Historical trade
// days therefore come out already due and get picked up by the next sweep.
// A report re-imported before its settlement runs gets the fresh amount; a
// SETTLED row stays untouched.
func (s *RebateService) ScheduleSettlement(ctx context.Context, reportID string, userID, tradeDay int64, amount decimal.Decimal) (*model.RebateSettlement, error) {
	hour := int(s.config.GetNumber(ctx, model.ConfigKeySettlementHourUTC, 3))
	if hour < 0 || hour > 23 {
		hour = 3
	}

	due := dateutil.AddDaysUTC(dateutil.StartOfDayUTC(time.UnixMilli(tradeDay)), 1).
		Add(time.Duration(hour) * time.Hour)

	return s.settlements.UpsertScheduled(ctx, &model.RebateSettlement{
		ReportID:    reportID,
		UserID:      userID,
		TradeDay:    tradeDay,
		Amount:      amount,
		ScheduledAt: due.UnixMilli(),
	})
}
