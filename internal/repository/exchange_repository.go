package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrExchangeNotFound = errors.New("exchange not found")

// ExchangeRepository persists exchanges.
type ExchangeRepository interface {
	// GetOrCreateByName resolves a canonical exchange name, creating the
	// row lazily on first reference.
	GetOrCreateByName(ctx context.Context, name string) (*model.Exchange, error)

	GetByName(ctx context.Context, name string) (*model.Exchange, error)

	List(ctx context.Context) ([]*model.Exchange, error)
}

type exchangeRepository struct {
	*Repository
}

// NewExchangeRepository creates an exchange repository.
func NewExchangeRepository(db *gorm.DB) ExchangeRepository {
	return &exchangeRepository{Repository: NewRepository(db)}
}

func (r *exchangeRepository) GetOrCreateByName(ctx context.Context, name string) (*model.Exchange, error) {
	var exchange model.Exchange

	result := r.DB(ctx).Where("name = ?", name).First(&exchange)
	if result.Error == nil {
		return &exchange, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get exchange failed: %w", result.Error)
	}

	exchange = model.Exchange{Name: name}
	result = r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&exchange)
	if result.Error != nil {
		return nil, fmt.Errorf("create exchange failed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		result = r.DB(ctx).Where("name = ?", name).First(&exchange)
		if result.Error != nil {
			return nil, fmt.Errorf("get exchange after conflict failed: %w", result.Error)
		}
	}

	return &exchange, nil
}

func (r *exchangeRepository) GetByName(ctx context.Context, name string) (*model.Exchange, error) {
	var exchange model.Exchange
	result := r.DB(ctx).Where("name = ?", name).First(&exchange)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrExchangeNotFound
		}
		return nil, fmt.Errorf("get exchange failed: %w", result.Error)
	}
	return &exchange, nil
}

func (r *exchangeRepository) List(ctx context.Context) ([]*model.Exchange, error) {
	var exchanges []*model.Exchange
	if err := r.DB(ctx).Order("name ASC").Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	return exchanges, nil
}
