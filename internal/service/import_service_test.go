package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
)

type stubFetcher struct {
	rows []model.TradeRow
	err  error
}

func (f *stubFetcher) FetchTrades(_ context.Context, _ string, _, _ time.Time) ([]model.TradeRow, error) {
	return f.rows, f.err
}

func newImportService(env *testEnv, fetcher TradeFetcher) *ImportService {
	rebates := NewRebateService(env.vip, env.settlements, env.config)
	return NewImportService(env.users, env.exchanges, env.bindings, env.reports, rebates, fetcher)
}

func tradeRow(exchange, uid string, day time.Time, volume, rate string) model.TradeRow {
	return model.TradeRow{
		Exchange: exchange,
		UID:      uid,
		TradeDay: dateutil.StartOfDayUTC(day),
		Volume:   decimal.RequireFromString(volume),
		FeeRate:  decimal.RequireFromString(rate),
		Raw:      map[string]interface{}{"uid": uid},
	}
}

func TestImportService_ImportTradeRows_BoundAndUnbound(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	env.seedVerifiedBinding(t, 7, model.ExchangeWeex, "u1")

	svc := newImportService(env, nil)
	day := time.Now()
	rows := []model.TradeRow{
		tradeRow("weex", "u1", day, "1000", "0.2"),
		tradeRow("weex", "nobody", day, "500", "0.2"),
	}

	summary, err := svc.ImportTradeRows(ctx, rows, "file:test.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "no verified binding")

	ex, err := env.exchanges.GetByName(ctx, model.ExchangeWeex)
	require.NoError(t, err)
	report, err := env.reports.GetByNaturalKey(ctx, ex.ID, 7, dateutil.StartOfDayUTC(day).UnixMilli())
	require.NoError(t, err)
	assert.True(t, report.ManualRebate.Equal(decimal.RequireFromString("30")), "1000*0.2*0.15, got %s", report.ManualRebate)

	settlement, err := env.settlements.GetByReportID(ctx, report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusScheduled, settlement.Status)
	assert.True(t, settlement.Amount.Equal(report.ManualRebate))
}

func TestImportService_ImportTradeRows_ReimportReplacesNotAccumulates(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	env.seedVerifiedBinding(t, 7, model.ExchangeWeex, "u1")

	svc := newImportService(env, nil)
	day := time.Now()

	_, err := svc.ImportTradeRows(ctx, []model.TradeRow{tradeRow("weex", "u1", day, "1000", "0.2")}, "file:a.csv")
	require.NoError(t, err)

	ex, err := env.exchanges.GetByName(ctx, model.ExchangeWeex)
	require.NoError(t, err)
	first, err := env.reports.GetByNaturalKey(ctx, ex.ID, 7, dateutil.StartOfDayUTC(day).UnixMilli())
	require.NoError(t, err)

	_, err = svc.ImportTradeRows(ctx, []model.TradeRow{tradeRow("weex", "u1", day, "2000", "0.2")}, "file:b.csv")
	require.NoError(t, err)

	second, err := env.reports.GetByNaturalKey(ctx, ex.ID, 7, dateutil.StartOfDayUTC(day).UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, first.ReportID, second.ReportID, "report id stable across re-import")
	assert.True(t, second.TradeVolume.Equal(decimal.RequireFromString("2000")))
	assert.True(t, second.ManualRebate.Equal(decimal.RequireFromString("60")))

	var count int64
	require.NoError(t, env.db.Model(&model.DailyTradeReport{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	settlement, err := env.settlements.GetByReportID(ctx, second.ReportID)
	require.NoError(t, err)
	assert.True(t, settlement.Amount.Equal(decimal.RequireFromString("60")), "rescheduled with fresh amount")
}

func TestImportService_ImportTradeRows_SettledDayNotRescheduled(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	env.seedVerifiedBinding(t, 7, model.ExchangeWeex, "u1")

	svc := newImportService(env, nil)
	day := time.Now()

	_, err := svc.ImportTradeRows(ctx, []model.TradeRow{tradeRow("weex", "u1", day, "1000", "0.2")}, "file:a.csv")
	require.NoError(t, err)

	ex, err := env.exchanges.GetByName(ctx, model.ExchangeWeex)
	require.NoError(t, err)
	report, err := env.reports.GetByNaturalKey(ctx, ex.ID, 7, dateutil.StartOfDayUTC(day).UnixMilli())
	require.NoError(t, err)
	settlement, err := env.settlements.GetByReportID(ctx, report.ReportID)
	require.NoError(t, err)
	require.NoError(t, env.settlements.MarkSettled(ctx, settlement.ID, time.Now().UnixMilli()))

	_, err = svc.ImportTradeRows(ctx, []model.TradeRow{tradeRow("weex", "u1", day, "9999", "0.2")}, "file:b.csv")
	require.NoError(t, err)

	after, err := env.settlements.GetByReportID(ctx, report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusSettled, after.Status)
	assert.True(t, after.Amount.Equal(settlement.Amount), "settled amount untouched")
}

func TestImportService_ImportTradeRows_UnsupportedExchangeSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := newImportService(env, nil)
	summary, err := svc.ImportTradeRows(ctx, []model.TradeRow{
		tradeRow("Binance", "u1", time.Now(), "100", "0.1"),
	}, "file:a.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	summary, err = svc.ImportTradeRows(ctx, []model.TradeRow{
		{Exchange: "Kraken", UID: "u1", TradeDay: time.Now(), Volume: decimal.NewFromInt(1)},
	}, "file:a.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "unsupported exchange")
}

func TestImportService_SyncFromBridge(t *testing.T) {
	env := newTestEnv(t)
	env.seedVipLadder(t)
	ctx := context.Background()

	env.seedUser(t, 7, "0", 2)
	env.seedVerifiedBinding(t, 7, model.ExchangeWeex, "u1")

	fetcher := &stubFetcher{rows: []model.TradeRow{tradeRow(model.ExchangeWeex, "u1", time.Now(), "1000", "0.2")}}
	svc := newImportService(env, fetcher)

	summary, err := svc.SyncFromBridge(ctx, "WEEX", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)

	ex, err := env.exchanges.GetByName(ctx, model.ExchangeWeex)
	require.NoError(t, err)
	report, err := env.reports.GetByNaturalKey(ctx, ex.ID, 7, dateutil.StartOfDayUTC(time.Now()).UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, "bridge:weex", report.Source)
}

func TestImportService_SyncFromBridge_FetchErrorAborts(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env, &stubFetcher{err: assert.AnError})

	_, err := svc.SyncFromBridge(context.Background(), "weex", time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.DailyTradeReport{}).Count(&count).Error)
	assert.Zero(t, count)
}
