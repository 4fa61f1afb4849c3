package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrWithdrawalStateConflict signals a status transition whose
	// precondition no longer holds (concurrent review or illegal skip).
	ErrWithdrawalStateConflict = errors.New("withdrawal state conflict")
)

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *model.WithdrawalRequest) error

	GetByWithdrawalID(ctx context.Context, withdrawalID string) (*model.WithdrawalRequest, error)

	// GetByIdempotencyKey dedupes retried client submissions.
	GetByIdempotencyKey(ctx context.Context, key string) (*model.WithdrawalRequest, error)

	ListByUser(ctx context.Context, userID int64, page *Pagination) ([]*model.WithdrawalRequest, error)

	CountByStatus(ctx context.Context, status model.WithdrawalStatus) (int64, error)

	// MarkApproved moves PENDING -> APPROVED, metadata only.
	MarkApproved(ctx context.Context, withdrawalID string, reviewerID int64) error

	// MarkRejected moves PENDING -> REJECTED.
	MarkRejected(ctx context.Context, withdrawalID string, reviewerID int64, reason string) error

	// MarkPaid moves APPROVED -> PAID, recording the payout attestation.
	MarkPaid(ctx context.Context, withdrawalID string, reviewerID int64, txHash string) error
}

type withdrawalRepository struct {
	*Repository
}

// NewWithdrawalRepository creates a withdrawal repository.
func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{Repository: NewRepository(db)}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *model.WithdrawalRequest) error {
	if err := r.DB(ctx).Create(withdrawal).Error; err != nil {
		return fmt.Errorf("create withdrawal failed: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByWithdrawalID(ctx context.Context, withdrawalID string) (*model.WithdrawalRequest, error) {
	var withdrawal model.WithdrawalRequest
	result := r.DB(ctx).Where("withdrawal_id = ?", withdrawalID).First(&withdrawal)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("get withdrawal failed: %w", result.Error)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.WithdrawalRequest, error) {
	var withdrawal model.WithdrawalRequest
	result := r.DB(ctx).Where("idempotency_key = ?", key).First(&withdrawal)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("get withdrawal by idempotency key failed: %w", result.Error)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID int64, page *Pagination) ([]*model.WithdrawalRequest, error) {
	db := r.DB(ctx).Where("user_id = ?", userID)

	if page != nil {
		var total int64
		if err := db.Model(&model.WithdrawalRequest{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count withdrawals failed: %w", err)
		}
		page.Total = total
	}

	var withdrawals []*model.WithdrawalRequest
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}
	if err := db.Find(&withdrawals).Error; err != nil {
		return nil, fmt.Errorf("list withdrawals failed: %w", err)
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) CountByStatus(ctx context.Context, status model.WithdrawalStatus) (int64, error) {
	var count int64
	result := r.DB(ctx).Model(&model.WithdrawalRequest{}).Where("status = ?", status).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("count withdrawals failed: %w", result.Error)
	}
	return count, nil
}

func (r *withdrawalRepository) MarkApproved(ctx context.Context, withdrawalID string, reviewerID int64) error {
	now := time.Now().UnixMilli()
	return r.transition(ctx, withdrawalID, model.WithdrawalStatusPending, map[string]interface{}{
		"status":      model.WithdrawalStatusApproved,
		"reviewed_by": reviewerID,
		"approved_at": now,
		"updated_at":  now,
	})
}

func (r *withdrawalRepository) MarkRejected(ctx context.Context, withdrawalID string, reviewerID int64, reason string) error {
	return r.transition(ctx, withdrawalID, model.WithdrawalStatusPending, map[string]interface{}{
		"status":      model.WithdrawalStatusRejected,
		"reviewed_by": reviewerID,
		"memo":        reason,
		"updated_at":  time.Now().UnixMilli(),
	})
}

func (r *withdrawalRepository) MarkPaid(ctx context.Context, withdrawalID string, reviewerID int64, txHash string) error {
	now := time.Now().UnixMilli()
	return r.transition(ctx, withdrawalID, model.WithdrawalStatusApproved, map[string]interface{}{
		"status":       model.WithdrawalStatusPaid,
		"reviewed_by":  reviewerID,
		"tx_hash":      txHash,
		"completed_at": now,
		"updated_at":   now,
	})
}

// transition applies updates only when the row is still in fromStatus, so
// each state change happens at most once.
func (r *withdrawalRepository) transition(ctx context.Context, withdrawalID string, fromStatus model.WithdrawalStatus, updates map[string]interface{}) error {
	result := r.DB(ctx).Model(&model.WithdrawalRequest{}).
		Where("withdrawal_id = ? AND status = ?", withdrawalID, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update withdrawal status failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWithdrawalStateConflict
	}
	return nil
}
