package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeperk/rebate-engine/internal/config"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

func newWithdrawalService(env *testEnv) *WithdrawalService {
	notify := NewNotifyService(config.TelegramConfig{})
	return NewWithdrawalService(env.users, env.withdrawals, env.ledger, env.config, notify)
}

func TestWithdrawalService_Create_DebitsAndFreezes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeyWithdrawalFee, "1")
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	request, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusPending, request.Status)

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("49")), "got %s", user.Balance)
	assert.True(t, user.BalanceFrozen.Equal(decimal.RequireFromString("50")), "got %s", user.BalanceFrozen)

	logs, err := env.logs.ListByUser(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].BalanceDelta.Equal(decimal.RequireFromString("-51")))
	assert.Equal(t, request.WithdrawalID, logs[0].ReferenceID)
}

func TestWithdrawalService_Create_BelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	env.setConfig(t, model.ConfigKeyMinWithdrawalAmount, "10")
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	_, err := svc.CreateWithdrawal(context.Background(), 7, decimal.RequireFromString("5"), "0xabc", "")
	assert.ErrorIs(t, err, ErrBelowMinimumWithdrawal)
}

func TestWithdrawalService_Create_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	_, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("200"), "0xabc", "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing moved, nothing logged.
	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("100")))
	logs, err := env.logs.ListByUser(ctx, 7, nil)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWithdrawalService_Create_IdempotencyKeyReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	first, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "key-1")
	require.NoError(t, err)

	second, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.WithdrawalID, second.WithdrawalID)

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("50")), "debited once, got %s", user.Balance)
}

func TestWithdrawalService_Reject_RefundsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeyWithdrawalFee, "1")
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	request, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, request.WithdrawalID, 1, "bad address"))

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("100")), "got %s", user.Balance)
	assert.True(t, user.BalanceFrozen.IsZero())

	stored, err := env.withdrawals.GetByWithdrawalID(ctx, request.WithdrawalID)
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusRejected, stored.Status)
}

func TestWithdrawalService_MarkPaid_RequiresApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	request, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "")
	require.NoError(t, err)

	err = svc.MarkPaid(ctx, request.WithdrawalID, 1, "0xhash")
	assert.ErrorIs(t, err, repository.ErrWithdrawalStateConflict)
}

func TestWithdrawalService_ApproveThenPaid_ReleasesEscrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeyWithdrawalFee, "1")
	env.seedUser(t, 7, "0", 1)
	env.fundUser(t, 7, "100")

	svc := newWithdrawalService(env)
	request, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, request.WithdrawalID, 1))
	require.NoError(t, svc.MarkPaid(ctx, request.WithdrawalID, 1, "0xhash"))

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("49")), "fee stays gone, got %s", user.Balance)
	assert.True(t, user.BalanceFrozen.IsZero())

	stored, err := env.withdrawals.GetByWithdrawalID(ctx, request.WithdrawalID)
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusPaid, stored.Status)
	assert.Equal(t, "0xhash", stored.TxHash)
	assert.NotZero(t, stored.CompletedAt)

	// Funding, withdrawal and paid entries; the paid entry releases escrow
	// without moving spendable balance.
	logs, err := env.logs.ListByUser(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	total, err := env.logs.SumBalanceDelta(ctx, 7)
	require.NoError(t, err)
	assert.True(t, total.Equal(user.Balance), "sum of deltas %s vs balance %s", total, user.Balance)
}

func TestWithdrawalService_Reject_Twice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, 7, "100", 1)

	svc := newWithdrawalService(env)
	request, err := svc.CreateWithdrawal(ctx, 7, decimal.RequireFromString("50"), "0xabc", "")
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, request.WithdrawalID, 1, "dup"))
	err = svc.Reject(ctx, request.WithdrawalID, 1, "dup")
	assert.ErrorIs(t, err, repository.ErrWithdrawalStateConflict)

	user, err := env.users.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("100")), "refunded once, got %s", user.Balance)
}
