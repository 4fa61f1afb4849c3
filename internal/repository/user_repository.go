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

var ErrUserNotFound = errors.New("user not found")

// UserRepository persists users.
type UserRepository interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// GetOrCreate returns the user, creating the row on first contact.
	GetOrCreate(ctx context.Context, userID int64) (*model.User, error)

	Get(ctx context.Context, userID int64) (*model.User, error)

	// GetForUpdate loads the user row with SELECT ... FOR UPDATE. Must be
	// called inside a transaction when the balance is about to change.
	GetForUpdate(ctx context.Context, userID int64) (*model.User, error)

	// Save writes back a mutated user row.
	Save(ctx context.Context, user *model.User) error

	UpdateVipLevel(ctx context.Context, userID int64, level int) error
}

type userRepository struct {
	*Repository
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{Repository: NewRepository(db)}
}

func (r *userRepository) GetOrCreate(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User

	result := r.DB(ctx).Where("id = ?", userID).First(&user)
	if result.Error == nil {
		return &user, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get user failed: %w", result.Error)
	}

	user = model.User{
		ID:            userID,
		Balance:       decimal.Zero,
		BalanceFrozen: decimal.Zero,
		VipLevel:      1,
	}

	// ON CONFLICT DO NOTHING handles concurrent first contact.
	result = r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("create user failed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		result = r.DB(ctx).Where("id = ?", userID).First(&user)
		if result.Error != nil {
			return nil, fmt.Errorf("get user after conflict failed: %w", result.Error)
		}
	}

	return &user, nil
}

func (r *userRepository) Get(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	result := r.DB(ctx).Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", result.Error)
	}
	return &user, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	result := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user for update failed: %w", result.Error)
	}
	return &user, nil
}

func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	result := r.DB(ctx).Model(user).
		Select("balance", "balance_frozen", "points", "vip_level", "check_in_streak", "last_check_in_day").
		Updates(user)
	if result.Error != nil {
		return fmt.Errorf("save user failed: %w", result.Error)
	}
	return nil
}

func (r *userRepository) UpdateVipLevel(ctx context.Context, userID int64, level int) error {
	result := r.DB(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("vip_level", level)
	if result.Error != nil {
		return fmt.Errorf("update vip level failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
