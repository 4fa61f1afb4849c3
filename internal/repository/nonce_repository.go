package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tradeperk/rebate-engine/internal/model"
)

var ErrNonceReplayed = errors.New("nonce already used")

// NonceRepository records consumed request nonces for replay protection.
type NonceRepository interface {
	// Consume stores a nonce; a duplicate returns ErrNonceReplayed.
	Consume(ctx context.Context, nonce string, userID int64) error

	// PurgeBefore deletes nonces recorded before a unix-milli instant.
	PurgeBefore(ctx context.Context, before int64) (int64, error)
}

type nonceRepository struct {
	*Repository
}

// NewNonceRepository creates a nonce repository.
func NewNonceRepository(db *gorm.DB) NonceRepository {
	return &nonceRepository{Repository: NewRepository(db)}
}

func (r *nonceRepository) Consume(ctx context.Context, nonce string, userID int64) error {
	entry := &model.ReplayNonce{Nonce: nonce, UserID: userID}
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrNonceReplayed
		}
		return fmt.Errorf("consume nonce failed: %w", err)
	}
	return nil
}

func (r *nonceRepository) PurgeBefore(ctx context.Context, before int64) (int64, error) {
	result := r.DB(ctx).Where("created_at < ?", before).Delete(&model.ReplayNonce{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge nonces failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// isUniqueViolation matches duplicate-key errors across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
