package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeperk/rebate-engine/internal/model"
)

func TestNormalizeRate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.2", "0.2"},
		{"1", "1"},
		{"20", "0.2"},
		{"0.0005", "0.0005"},
		{"100", "1"},
	}
	for _, tc := range cases {
		got := NormalizeRate(decimal.RequireFromString(tc.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "rate %s -> %s, want %s", tc.in, got, tc.want)
	}
}

func TestRebateService_ComputeManualRebate(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	svc := NewRebateService(env.vip, env.settlements, env.config)

	rebate, err := svc.ComputeManualRebate(ctx, 7,
		decimal.RequireFromString("1000"), decimal.RequireFromString("0.2"))
	require.NoError(t, err)
	assert.True(t, rebate.Equal(decimal.RequireFromString("30")), "got %s", rebate)
}

func TestRebateService_ComputeManualRebate_PercentRate(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	svc := NewRebateService(env.vip, env.settlements, env.config)

	// 20 is a percent-style entry of 0.2.
	rebate, err := svc.ComputeManualRebate(ctx, 7,
		decimal.RequireFromString("1000"), decimal.RequireFromString("20"))
	require.NoError(t, err)
	assert.True(t, rebate.Equal(decimal.RequireFromString("30")), "got %s", rebate)
}

func TestRebateService_ScheduleSettlement_DayAfterTradeDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewRebateService(env.vip, env.settlements, env.config)

	tradeDay := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	settlement, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay.UnixMilli(), decimal.RequireFromString("30"))
	require.NoError(t, err)

	wantDue := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDue.UnixMilli(), settlement.ScheduledAt)
	assert.Equal(t, model.SettlementStatusScheduled, settlement.Status)
}

func TestRebateService_ScheduleSettlement_BackfilledDayIsAlreadyDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewRebateService(env.vip, env.settlements, env.config)

	// A historical trade day schedules relative to itself, not to now.
	tradeDay := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	settlement, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay.UnixMilli(), decimal.RequireFromString("30"))
	require.NoError(t, err)

	wantDue := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDue.UnixMilli(), settlement.ScheduledAt)
	assert.True(t, settlement.ScheduledAt <= time.Now().UnixMilli(), "backfill must be sweepable immediately")
}

func TestRebateService_ScheduleSettlement_HonorsConfiguredHour(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeySettlementHourUTC, "7")
	svc := NewRebateService(env.vip, env.settlements, env.config)

	tradeDay := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	settlement, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay.UnixMilli(), decimal.RequireFromString("1"))
	require.NoError(t, err)

	wantDue := time.Date(2026, 6, 2, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDue.UnixMilli(), settlement.ScheduledAt)
}

func TestRebateService_ScheduleSettlement_ReplacesScheduledAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewRebateService(env.vip, env.settlements, env.config)

	tradeDay := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).UnixMilli()
	_, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay, decimal.RequireFromString("30"))
	require.NoError(t, err)

	updated, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay, decimal.RequireFromString("45"))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("45")), "got %s", updated.Amount)
	assert.Equal(t, model.SettlementStatusScheduled, updated.Status)
}

func TestRebateService_ScheduleSettlement_SettledIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewRebateService(env.vip, env.settlements, env.config)

	tradeDay := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).UnixMilli()
	first, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay, decimal.RequireFromString("30"))
	require.NoError(t, err)
	require.NoError(t, env.settlements.MarkSettled(ctx, first.ID, time.Now().UnixMilli()))

	after, err := svc.ScheduleSettlement(ctx, "r-1", 7, tradeDay, decimal.RequireFromString("99"))
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusSettled, after.Status)
	assert.True(t, after.Amount.Equal(decimal.RequireFromString("30")), "settled amount must not change, got %s", after.Amount)
}
