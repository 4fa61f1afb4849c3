package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// Mutation is one balance/points movement plus its audit entry. Amount is
// the business amount of the event; BalanceDelta is the net spendable
// change it causes, which may differ (escrow release logs zero).
type Mutation struct {
	UserID       int64
	Type         model.TransactionType
	Amount       decimal.Decimal
	BalanceDelta decimal.Decimal
	FrozenDelta  decimal.Decimal
	PointsDelta  int64
	ReferenceID  string
	Meta         string
}

// LedgerService is the single gateway through which user balances, frozen
// balances and points change. Every mutation appends exactly one
// transaction log row in the same database transaction, keeping
// sum(balance_delta) equal to the user's balance at all times.
type LedgerService struct {
	users repository.UserRepository
	logs  repository.TransactionLogRepository
}

// NewLedgerService creates a ledger service.
func NewLedgerService(users repository.UserRepository, logs repository.TransactionLogRepository) *LedgerService {
	return &LedgerService{users: users, logs: logs}
}

// Transaction runs fn inside one database transaction.
func (s *LedgerService) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.users.Transaction(ctx, fn)
}

// Apply locks the user row, applies the deltas and appends the paired log
// entry. Must be called inside Transaction. Balance and frozen balance are
// never allowed below zero.
func (s *LedgerService) Apply(ctx context.Context, m Mutation) (*model.User, error) {
	user, err := s.users.GetForUpdate(ctx, m.UserID)
	if err != nil {
		return nil, err
	}

	balance := user.Balance.Add(m.BalanceDelta)
	frozen := user.BalanceFrozen.Add(m.FrozenDelta)
	points := user.Points + m.PointsDelta

	if balance.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	if frozen.IsNegative() {
		return nil, fmt.Errorf("frozen balance would go negative for user %d", m.UserID)
	}
	if points < 0 {
		return nil, fmt.Errorf("points would go negative for user %d", m.UserID)
	}

	user.Balance = balance
	user.BalanceFrozen = frozen
	user.Points = points
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	entry := &model.TransactionLog{
		UserID:       m.UserID,
		Type:         m.Type,
		Amount:       m.Amount,
		BalanceDelta: m.BalanceDelta,
		PointsDelta:  m.PointsDelta,
		ReferenceID:  m.ReferenceID,
		Meta:         m.Meta,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, err
	}
	return user, nil
}

// History lists a user's ledger entries, newest first.
func (s *LedgerService) History(ctx context.Context, userID int64, page *repository.Pagination) ([]*model.TransactionLog, error) {
	return s.logs.ListByUser(ctx, userID, page)
}
