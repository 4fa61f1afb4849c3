package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrReportNotFound = errors.New("trade report not found")

// ReportRepository persists daily trade reports.
type ReportRepository interface {
	// Upsert writes the report keyed by (exchange, user, trade day). A
	// re-import of the same day replaces the figures; ReportID of the
	// existing row is preserved and written back into report.
	Upsert(ctx context.Context, report *model.DailyTradeReport) error

	GetByReportID(ctx context.Context, reportID string) (*model.DailyTradeReport, error)

	GetByNaturalKey(ctx context.Context, exchangeID, userID, tradeDay int64) (*model.DailyTradeReport, error)

	// SumVolumeSince totals trade volume across all users from a UTC
	// instant (unix millis); pass 0 for lifetime.
	SumVolumeSince(ctx context.Context, since int64) (decimal.Decimal, error)

	// SumVolumeByUser totals a single user's lifetime trade volume.
	SumVolumeByUser(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type reportRepository struct {
	*Repository
}

// NewReportRepository creates a report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{Repository: NewRepository(db)}
}

func (r *reportRepository) Upsert(ctx context.Context, report *model.DailyTradeReport) error {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exchange_id"}, {Name: "user_id"}, {Name: "trade_day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"trade_volume", "base_fee_rate", "auto_rebate", "manual_rebate", "source", "raw", "updated_at",
		}),
	}).Create(report)
	if result.Error != nil {
		return fmt.Errorf("upsert trade report failed: %w", result.Error)
	}

	// On the replace path the generated ReportID of the fresh struct lost
	// to the stored one; read it back so settlement keys stay stable.
	var stored model.DailyTradeReport
	err := r.DB(ctx).
		Where("exchange_id = ? AND user_id = ? AND trade_day = ?", report.ExchangeID, report.UserID, report.TradeDay).
		First(&stored).Error
	if err != nil {
		return fmt.Errorf("reload trade report failed: %w", err)
	}
	*report = stored
	return nil
}

func (r *reportRepository) GetByReportID(ctx context.Context, reportID string) (*model.DailyTradeReport, error) {
	var report model.DailyTradeReport
	result := r.DB(ctx).Where("report_id = ?", reportID).First(&report)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get trade report failed: %w", result.Error)
	}
	return &report, nil
}

func (r *reportRepository) GetByNaturalKey(ctx context.Context, exchangeID, userID, tradeDay int64) (*model.DailyTradeReport, error) {
	var report model.DailyTradeReport
	result := r.DB(ctx).
		Where("exchange_id = ? AND user_id = ? AND trade_day = ?", exchangeID, userID, tradeDay).
		First(&report)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get trade report failed: %w", result.Error)
	}
	return &report, nil
}

func (r *reportRepository) SumVolumeSince(ctx context.Context, since int64) (decimal.Decimal, error) {
	return r.sumVolume(ctx, "trade_day >= ?", since)
}

func (r *reportRepository) SumVolumeByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return r.sumVolume(ctx, "user_id = ?", userID)
}

func (r *reportRepository) sumVolume(ctx context.Context, cond string, arg interface{}) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&model.DailyTradeReport{}).
		Where(cond, arg).
		Select("SUM(trade_volume)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum trade volume failed: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
