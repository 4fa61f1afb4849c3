package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
)

// TransactionLogRepository appends and queries the audit trail. There is
// deliberately no update or delete.
type TransactionLogRepository interface {
	Append(ctx context.Context, entry *model.TransactionLog) error

	ListByUser(ctx context.Context, userID int64, page *Pagination) ([]*model.TransactionLog, error)

	// SumBalanceDelta totals all balance deltas for a user; always equals
	// the user's current spendable balance.
	SumBalanceDelta(ctx context.Context, userID int64) (decimal.Decimal, error)

	// SumAmountByType totals entry amounts of one type since a unix-milli
	// instant; pass 0 for lifetime.
	SumAmountByType(ctx context.Context, userID int64, typ model.TransactionType, since int64) (decimal.Decimal, error)
}

type transactionLogRepository struct {
	*Repository
}

// NewTransactionLogRepository creates a transaction log repository.
func NewTransactionLogRepository(db *gorm.DB) TransactionLogRepository {
	return &transactionLogRepository{Repository: NewRepository(db)}
}

func (r *transactionLogRepository) Append(ctx context.Context, entry *model.TransactionLog) error {
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append transaction log failed: %w", err)
	}
	return nil
}

func (r *transactionLogRepository) ListByUser(ctx context.Context, userID int64, page *Pagination) ([]*model.TransactionLog, error) {
	db := r.DB(ctx).Where("user_id = ?", userID)

	if page != nil {
		var total int64
		if err := db.Model(&model.TransactionLog{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count transaction logs failed: %w", err)
		}
		page.Total = total
	}

	var logs []*model.TransactionLog
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}
	if err := db.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list transaction logs failed: %w", err)
	}
	return logs, nil
}

func (r *transactionLogRepository) SumBalanceDelta(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return r.sum(ctx, r.DB(ctx).Model(&model.TransactionLog{}).Where("user_id = ?", userID), "SUM(balance_delta)")
}

func (r *transactionLogRepository) SumAmountByType(ctx context.Context, userID int64, typ model.TransactionType, since int64) (decimal.Decimal, error) {
	db := r.DB(ctx).Model(&model.TransactionLog{}).Where("user_id = ? AND type = ?", userID, typ)
	if since > 0 {
		db = db.Where("created_at >= ?", since)
	}
	return r.sum(ctx, db, "SUM(amount)")
}

func (r *transactionLogRepository) sum(_ context.Context, db *gorm.DB, expr string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := db.Select(expr).Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum transaction logs failed: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
