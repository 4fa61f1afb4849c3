package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var (
	ErrSettlementNotFound = errors.New("settlement not found")
	// ErrSettlementNotScheduled signals a SCHEDULED->SETTLED transition
	// that lost the race or targeted an already terminal row.
	ErrSettlementNotScheduled = errors.New("settlement is not in scheduled state")
)

// SettlementRepository persists rebate settlements.
type SettlementRepository interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// UpsertScheduled schedules (or re-schedules) the settlement for a
	// report, overwriting amount and due time of a SCHEDULED row. A row
	// already SETTLED is terminal and left untouched: the write is
	// silently skipped and the stored row returned.
	UpsertScheduled(ctx context.Context, settlement *model.RebateSettlement) (*model.RebateSettlement, error)

	GetByReportID(ctx context.Context, reportID string) (*model.RebateSettlement, error)

	// ListDue returns SCHEDULED settlements with scheduledAt <= now (unix millis).
	ListDue(ctx context.Context, now int64, limit int) ([]*model.RebateSettlement, error)

	// MarkSettled flips exactly one SCHEDULED row to SETTLED. Exactly-once:
	// a second call for the same row returns ErrSettlementNotScheduled.
	MarkSettled(ctx context.Context, id int64, settledAt int64) error

	// SumScheduledByUser totals a user's not-yet-settled rebate.
	SumScheduledByUser(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type settlementRepository struct {
	*Repository
}

// NewSettlementRepository creates a settlement repository.
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{Repository: NewRepository(db)}
}

func (r *settlementRepository) UpsertScheduled(ctx context.Context, settlement *model.RebateSettlement) (*model.RebateSettlement, error) {
	settlement.Status = model.SettlementStatusScheduled

	// The conditional assignment protects terminal rows: only a row still
	// SCHEDULED takes the new amount and due time.
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":       gorm.Expr("CASE WHEN rebate_settlements.status = ? THEN ? ELSE rebate_settlements.amount END", model.SettlementStatusScheduled, settlement.Amount),
			"scheduled_at": gorm.Expr("CASE WHEN rebate_settlements.status = ? THEN ? ELSE rebate_settlements.scheduled_at END", model.SettlementStatusScheduled, settlement.ScheduledAt),
			"updated_at":   time.Now().UnixMilli(),
		}),
	}).Create(settlement)
	if result.Error != nil {
		return nil, fmt.Errorf("upsert settlement failed: %w", result.Error)
	}

	stored, err := r.GetByReportID(ctx, settlement.ReportID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *settlementRepository) GetByReportID(ctx context.Context, reportID string) (*model.RebateSettlement, error) {
	var settlement model.RebateSettlement
	result := r.DB(ctx).Where("report_id = ?", reportID).First(&settlement)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("get settlement failed: %w", result.Error)
	}
	return &settlement, nil
}

func (r *settlementRepository) ListDue(ctx context.Context, now int64, limit int) ([]*model.RebateSettlement, error) {
	var settlements []*model.RebateSettlement
	db := r.DB(ctx).
		Where("status = ? AND scheduled_at <= ?", model.SettlementStatusScheduled, now).
		Order("scheduled_at ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&settlements).Error; err != nil {
		return nil, fmt.Errorf("list due settlements failed: %w", err)
	}
	return settlements, nil
}

func (r *settlementRepository) MarkSettled(ctx context.Context, id int64, settledAt int64) error {
	result := r.DB(ctx).Model(&model.RebateSettlement{}).
		Where("id = ? AND status = ?", id, model.SettlementStatusScheduled).
		Updates(map[string]interface{}{
			"status":     model.SettlementStatusSettled,
			"settled_at": settledAt,
			"updated_at": time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark settlement settled failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSettlementNotScheduled
	}
	return nil
}

func (r *settlementRepository) SumScheduledByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&model.RebateSettlement{}).
		Where("user_id = ? AND status = ?", userID, model.SettlementStatusScheduled).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum scheduled settlements failed: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
