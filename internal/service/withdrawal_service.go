package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/metrics"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// WithdrawalService runs the escrow-backed withdrawal state machine:
// PENDING -> APPROVED -> PAID, or PENDING -> REJECTED.
type WithdrawalService struct {
	users       repository.UserRepository
	withdrawals repository.WithdrawalRepository
	ledger      *LedgerService
	config      *ConfigService
	notify      *NotifyService
}

// NewWithdrawalService creates a withdrawal service.
func NewWithdrawalService(
	users repository.UserRepository,
	withdrawals repository.WithdrawalRepository,
	ledger *LedgerService,
	config *ConfigService,
	notify *NotifyService,
) *WithdrawalService {
	return &WithdrawalService{
		users:       users,
		withdrawals: withdrawals,
		ledger:      ledger,
		config:      config,
		notify:      notify,
	}
}

// CreateWithdrawal debits amount plus fee from the user's balance, holds
// amount in escrow and files a PENDING request. A repeated idempotencyKey
// returns the earlier request without touching the balance again.
func (s *WithdrawalService) CreateWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, address, idempotencyKey string) (*model.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	min := s.config.GetDecimal(ctx, model.ConfigKeyMinWithdrawalAmount, decimal.NewFromInt(10))
	if amount.LessThan(min) {
		return nil, ErrBelowMinimumWithdrawal.WithMessagef("minimum withdrawal is %s", min)
	}

	if idempotencyKey != "" {
		existing, err := s.withdrawals.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrWithdrawalNotFound) {
			return nil, err
		}
	}

	fee := s.config.GetDecimal(ctx, model.ConfigKeyWithdrawalFee, decimal.Zero)
	request := &model.WithdrawalRequest{
		WithdrawalID: uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		Fee:          fee,
		Address:      address,
		Status:       model.WithdrawalStatusPending,
	}
	if idempotencyKey != "" {
		request.IdempotencyKey = &idempotencyKey
	}

	err := s.ledger.Transaction(ctx, func(ctx context.Context) error {
		_, err := s.ledger.Apply(ctx, Mutation{
			UserID:       userID,
			Type:         model.TransactionTypeWithdrawal,
			Amount:       amount,
			BalanceDelta: request.Total().Neg(),
			FrozenDelta:  amount,
			ReferenceID:  request.WithdrawalID,
			Meta:         fmt.Sprintf(`{"fee":"%s"}`, fee),
		})
		if err != nil {
			return err
		}
		return s.withdrawals.Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(model.WithdrawalStatusPending)).Inc()
	return request, nil
}

// Approve marks a PENDING request APPROVED. Metadata only; the funds stay
// in escrow until MarkPaid.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID string, reviewerID int64) error {
	if err := s.withdrawals.MarkApproved(ctx, withdrawalID, reviewerID); err != nil {
		return err
	}
	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(model.WithdrawalStatusApproved)).Inc()

	if request, err := s.withdrawals.GetByWithdrawalID(ctx, withdrawalID); err == nil {
		s.notify.Send(request.UserID, fmt.Sprintf("Your withdrawal of %s was approved.", request.Amount))
	}
	return nil
}

// Reject refunds the full deduction (amount plus fee) and releases the
// escrow. PENDING precondition.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID string, reviewerID int64, reason string) error {
	request, err := s.withdrawals.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	err = s.ledger.Transaction(ctx, func(ctx context.Context) error {
		if err := s.withdrawals.MarkRejected(ctx, withdrawalID, reviewerID, reason); err != nil {
			return err
		}
		_, err := s.ledger.Apply(ctx, Mutation{
			UserID:       request.UserID,
			Type:         model.TransactionTypeWithdrawal,
			Amount:       request.Amount,
			BalanceDelta: request.Total(),
			FrozenDelta:  request.Amount.Neg(),
			ReferenceID:  request.WithdrawalID,
			Meta:         fmt.Sprintf(`{"refund":true,"reason":%q}`, reason),
		})
		return err
	})
	if err != nil {
		return err
	}

	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(model.WithdrawalStatusRejected)).Inc()
	s.notify.Send(request.UserID, fmt.Sprintf("Your withdrawal of %s was rejected: %s", request.Amount, reason))
	return nil
}

// MarkPaid records the on-chain payout and releases the escrow for good.
// APPROVED precondition; the user's spendable balance does not move, so
// the paired log entry carries a zero delta. The fee is never refunded on
// this path.
func (s *WithdrawalService) MarkPaid(ctx context.Context, withdrawalID string, reviewerID int64, txHash string) error {
	request, err := s.withdrawals.GetByWithdrawalID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	err = s.ledger.Transaction(ctx, func(ctx context.Context) error {
		if err := s.withdrawals.MarkPaid(ctx, withdrawalID, reviewerID, txHash); err != nil {
			return err
		}
		_, err := s.ledger.Apply(ctx, Mutation{
			UserID:       request.UserID,
			Type:         model.TransactionTypeWithdrawal,
			Amount:       request.Amount,
			BalanceDelta: decimal.Zero,
			FrozenDelta:  request.Amount.Neg(),
			ReferenceID:  request.WithdrawalID,
			Meta:         fmt.Sprintf(`{"paid":true,"tx_hash":%q}`, txHash),
		})
		return err
	})
	if err != nil {
		return err
	}

	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(model.WithdrawalStatusPaid)).Inc()
	s.notify.Send(request.UserID, fmt.Sprintf("Your withdrawal of %s was paid. Tx: %s", request.Amount, txHash))
	return nil
}

// Get returns one request by business id.
func (s *WithdrawalService) Get(ctx context.Context, withdrawalID string) (*model.WithdrawalRequest, error) {
	return s.withdrawals.GetByWithdrawalID(ctx, withdrawalID)
}

// ListByUser returns a user's requests, newest first.
func (s *WithdrawalService) ListByUser(ctx context.Context, userID int64, page *repository.Pagination) ([]*model.WithdrawalRequest, error) {
	return s.withdrawals.ListByUser(ctx, userID, page)
}
