package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// UserService covers user lookup and admin-side manual adjustment.
type UserService struct {
	users  repository.UserRepository
	ledger *LedgerService
	vip    *VipService
}

// NewUserService creates a user service.
func NewUserService(users repository.UserRepository, ledger *LedgerService, vip *VipService) *UserService {
	return &UserService{users: users, ledger: ledger, vip: vip}
}

// Get returns the user, creating the row on first contact.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetOrCreate(ctx, userID)
}

// Adjust applies a manual balance/points correction with an ADJUSTMENT
// audit entry and resyncs the VIP level.
func (s *UserService) Adjust(ctx context.Context, userID int64, balanceDelta decimal.Decimal, pointsDelta int64, operatorID int64, remark string) (*model.User, error) {
	if _, err := s.users.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.ledger.Transaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.ledger.Apply(ctx, Mutation{
			UserID:       userID,
			Type:         model.TransactionTypeAdjustment,
			Amount:       balanceDelta.Abs(),
			BalanceDelta: balanceDelta,
			PointsDelta:  pointsDelta,
			ReferenceID:  fmt.Sprintf("operator:%d", operatorID),
			Meta:         fmt.Sprintf(`{"remark":%q}`, remark),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.vip.SyncVipLevel(ctx, userID); err != nil {
		return nil, err
	}
	return user, nil
}
