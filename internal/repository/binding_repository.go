package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrBindingNotFound = errors.New("binding not found")

// BindingRepository persists user/exchange UID bindings.
type BindingRepository interface {
	// Upsert writes the binding keyed by (user, exchange), replacing the
	// uid and status of an existing row.
	Upsert(ctx context.Context, binding *model.UserBinding) error

	GetByID(ctx context.Context, id int64) (*model.UserBinding, error)

	GetByUserExchange(ctx context.Context, userID, exchangeID int64) (*model.UserBinding, error)

	// GetVerified finds the VERIFIED binding holding uid on an exchange.
	GetVerified(ctx context.Context, exchangeID int64, uid string) (*model.UserBinding, error)

	// HasVerifiedForUser reports whether the user holds any VERIFIED binding.
	HasVerifiedForUser(ctx context.Context, userID int64) (bool, error)

	ListByStatus(ctx context.Context, status model.BindingStatus, page *Pagination) ([]*model.UserBinding, error)

	CountByStatus(ctx context.Context, status model.BindingStatus) (int64, error)

	// Review moves a binding to VERIFIED or REJECTED with reviewer metadata.
	Review(ctx context.Context, id int64, status model.BindingStatus, reviewerID int64, reason string) error
}

type bindingRepository struct {
	*Repository
}

// NewBindingRepository creates a binding repository.
func NewBindingRepository(db *gorm.DB) BindingRepository {
	return &bindingRepository{Repository: NewRepository(db)}
}

func (r *bindingRepository) Upsert(ctx context.Context, binding *model.UserBinding) error {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "exchange_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"uid", "status", "reviewed_by", "reviewed_at", "reject_reason", "updated_at",
		}),
	}).Create(binding)
	if result.Error != nil {
		return fmt.Errorf("upsert binding failed: %w", result.Error)
	}
	return nil
}

func (r *bindingRepository) GetByID(ctx context.Context, id int64) (*model.UserBinding, error) {
	var binding model.UserBinding
	result := r.DB(ctx).Where("id = ?", id).First(&binding)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("get binding failed: %w", result.Error)
	}
	return &binding, nil
}

func (r *bindingRepository) GetByUserExchange(ctx context.Context, userID, exchangeID int64) (*model.UserBinding, error) {
	var binding model.UserBinding
	result := r.DB(ctx).Where("user_id = ? AND exchange_id = ?", userID, exchangeID).First(&binding)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("get binding failed: %w", result.Error)
	}
	return &binding, nil
}

func (r *bindingRepository) GetVerified(ctx context.Context, exchangeID int64, uid string) (*model.UserBinding, error) {
	var binding model.UserBinding
	result := r.DB(ctx).
		Where("exchange_id = ? AND uid = ? AND status = ?", exchangeID, uid, model.BindingStatusVerified).
		First(&binding)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("get verified binding failed: %w", result.Error)
	}
	return &binding, nil
}

func (r *bindingRepository) HasVerifiedForUser(ctx context.Context, userID int64) (bool, error) {
	var count int64
	result := r.DB(ctx).Model(&model.UserBinding{}).
		Where("user_id = ? AND status = ?", userID, model.BindingStatusVerified).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("count verified bindings failed: %w", result.Error)
	}
	return count > 0, nil
}

func (r *bindingRepository) ListByStatus(ctx context.Context, status model.BindingStatus, page *Pagination) ([]*model.UserBinding, error) {
	db := r.DB(ctx).Where("status = ?", status)

	if page != nil {
		var total int64
		if err := db.Model(&model.UserBinding{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count bindings failed: %w", err)
		}
		page.Total = total
	}

	var bindings []*model.UserBinding
	db = db.Order("created_at ASC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}
	if err := db.Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("list bindings failed: %w", err)
	}
	return bindings, nil
}

func (r *bindingRepository) CountByStatus(ctx context.Context, status model.BindingStatus) (int64, error) {
	var count int64
	result := r.DB(ctx).Model(&model.UserBinding{}).Where("status = ?", status).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("count bindings failed: %w", result.Error)
	}
	return count, nil
}

func (r *bindingRepository) Review(ctx context.Context, id int64, status model.BindingStatus, reviewerID int64, reason string) error {
	result := r.DB(ctx).Model(&model.UserBinding{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"reviewed_by":   reviewerID,
			"reviewed_at":   time.Now().UnixMilli(),
			"reject_reason": reason,
			"updated_at":    time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return fmt.Errorf("review binding failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBindingNotFound
	}
	return nil
}
