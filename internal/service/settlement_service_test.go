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

func seedDueSettlement(t *testing.T, env *testEnv, reportID string, userID int64, amount string) *model.RebateSettlement {
	settlement := &model.RebateSettlement{
		ReportID:    reportID,
		UserID:      userID,
		TradeDay:    0,
		Amount:      decimal.RequireFromString(amount),
		ScheduledAt: time.Now().Add(-time.Hour).UnixMilli(),
	}
	stored, err := env.settlements.UpsertScheduled(context.Background(), settlement)
	require.NoError(t, err)
	return stored
}

func TestSettlementService_SettleDueRebates_CreditsBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedUser(t, 7, "10", 1)
	seedDueSettlement(t, env, "r-1", 7, "30")

	svc := NewSettlementService(env.settlements, env.users, env.ledger, 0)
	result, err := svc.SettleDueRebates(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SettledCount)
	assert.True(t, result.TotalAmount.Equal(decimal.RequireFromString("30")))

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("40")), "got %s", user.Balance)

	stored, err := env.settlements.GetByReportID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusSettled, stored.Status)
	assert.NotZero(t, stored.SettledAt)

	logs, err := env.logs.ListByUser(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.TransactionTypeRebate, logs[0].Type)
	assert.Equal(t, "r-1", logs[0].ReferenceID)
	assert.True(t, logs[0].BalanceDelta.Equal(decimal.RequireFromString("30")))
}

func TestSettlementService_SettleDueRebates_SecondSweepIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 1)
	seedDueSettlement(t, env, "r-1", 7, "30")

	svc := NewSettlementService(env.settlements, env.users, env.ledger, 0)
	_, err := svc.SettleDueRebates(ctx, time.Now())
	require.NoError(t, err)

	result, err := svc.SettleDueRebates(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.SettledCount)

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("30")), "credited once, got %s", user.Balance)
}

func TestSettlementService_SettleDueRebates_SkipsFutureRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 1)
	settlement := &model.RebateSettlement{
		ReportID:    "r-future",
		UserID:      7,
		Amount:      decimal.RequireFromString("30"),
		ScheduledAt: time.Now().Add(time.Hour).UnixMilli(),
	}
	_, err := env.settlements.UpsertScheduled(ctx, settlement)
	require.NoError(t, err)

	svc := NewSettlementService(env.settlements, env.users, env.ledger, 0)
	result, err := svc.SettleDueRebates(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.SettledCount)
}

func TestSettlementService_SettleDueRebates_MissingUserSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 1)
	seedDueSettlement(t, env, "r-ghost", 404, "5")
	seedDueSettlement(t, env, "r-1", 7, "30")

	svc := NewSettlementService(env.settlements, env.users, env.ledger, 0)
	result, err := svc.SettleDueRebates(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SettledCount)
	assert.True(t, result.TotalAmount.Equal(decimal.RequireFromString("30")))

	ghost, err := env.settlements.GetByReportID(ctx, "r-ghost")
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusScheduled, ghost.Status, "failed row stays scheduled")
}
