package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
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
	)
	require.NoError(t, err)

	return db
}

type testEnv struct {
	db *gorm.DB

	users       repository.UserRepository
	exchanges   repository.ExchangeRepository
	bindings    repository.BindingRepository
	reports     repository.ReportRepository
	settlements repository.SettlementRepository
	logs        repository.TransactionLogRepository
	withdrawals repository.WithdrawalRepository
	vipConfigs  repository.VipConfigRepository
	sysConfigs  repository.SystemConfigRepository

	config *ConfigService
	vip    *VipService
	ledger *LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)

	env := &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		exchanges:   repository.NewExchangeRepository(db),
		bindings:    repository.NewBindingRepository(db),
		reports:     repository.NewReportRepository(db),
		settlements: repository.NewSettlementRepository(db),
		logs:        repository.NewTransactionLogRepository(db),
		withdrawals: repository.NewWithdrawalRepository(db),
		vipConfigs:  repository.NewVipConfigRepository(db),
		sysConfigs:  repository.NewSystemConfigRepository(db),
	}
	env.config = NewConfigService(env.sysConfigs, nil)
	env.vip = NewVipService(env.users, env.vipConfigs)
	env.ledger = NewLedgerService(env.users, env.logs)
	return env
}

func (e *testEnv) seedVipLadder(t *testing.T) {
	ladder := []*model.VipConfig{
		{Level: 1, Name: "Bronze", MinPoints: 0, RebateRatioBonus: decimal.RequireFromString("0.05")},
		{Level: 2, Name: "Silver", MinPoints: 1000, RebateRatioBonus: decimal.RequireFromString("0.15")},
		{Level: 3, Name: "Gold", MinPoints: 5000, RebateRatioBonus: decimal.RequireFromString("0.25")},
	}
	for _, cfg := range ladder {
		require.NoError(t, e.vipConfigs.Upsert(context.Background(), cfg))
	}
}

func (e *testEnv) seedUser(t *testing.T, userID int64, balance string, vipLevel int) *model.User {
	user := &model.User{
		ID:       userID,
		Balance:  decimal.RequireFromString(balance),
		VipLevel: vipLevel,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

// fundUser credits an opening balance through the ledger so that
// sum-of-deltas checks hold for the whole account history.
func (e *testEnv) fundUser(t *testing.T, userID int64, amount string) {
	opening := decimal.RequireFromString(amount)
	err := e.ledger.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := e.ledger.Apply(ctx, Mutation{
			UserID:       userID,
			Type:         model.TransactionTypeAdjustment,
			Amount:       opening.Abs(),
			BalanceDelta: opening,
			ReferenceID:  "seed",
		})
		return err
	})
	require.NoError(t, err)
}

func (e *testEnv) setConfig(t *testing.T, key, value string) {
	require.NoError(t, e.sysConfigs.Set(context.Background(), &model.SystemConfig{Key: key, Value: value}))
}

func (e *testEnv) seedVerifiedBinding(t *testing.T, userID int64, exchange, uid string) *model.UserBinding {
	ex, err := e.exchanges.GetOrCreateByName(context.Background(), exchange)
	require.NoError(t, err)

	binding := &model.UserBinding{
		UserID:     userID,
		ExchangeID: ex.ID,
		UID:        uid,
		Status:     model.BindingStatusVerified,
	}
	require.NoError(t, e.bindings.Upsert(context.Background(), binding))
	return binding
}
