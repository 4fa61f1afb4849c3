package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/metrics"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

// SettlementResult summarizes one sweep run.
type SettlementResult struct {
	SettledCount int             `json:"settled_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// SettlementService credits due rebates to user balances.
type SettlementService struct {
	settlements repository.SettlementRepository
	users       repository.UserRepository
	ledger      *LedgerService
	batchSize   int
}

// NewSettlementService creates a settlement service. batchSize caps rows
// per sweep; zero means unbounded.
func NewSettlementService(
	settlements repository.SettlementRepository,
	users repository.UserRepository,
	ledger *LedgerService,
	batchSize int,
) *SettlementService {
	return &SettlementService{
		settlements: settlements,
		users:       users,
		ledger:      ledger,
		batchSize:   batchSize,
	}
}

// SettleDueRebates credits every SCHEDULED settlement due at now. Each row
// settles in its own transaction, so one bad row never blocks the batch.
// Concurrent sweeps are safe: the SCHEDULED->SETTLED flip is conditional
// and the loser of a race skips the row.
func (s *SettlementService) SettleDueRebates(ctx context.Context, now time.Time) (*SettlementResult, error) {
	due, err := s.settlements.ListDue(ctx, now.UnixMilli(), s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{TotalAmount: decimal.Zero}
	for _, row := range due {
		if err := s.settleOne(ctx, row, now); err != nil {
			switch {
			case errors.Is(err, repository.ErrUserNotFound):
				logger.Warn("settlement for unknown user skipped",
					zap.String("report_id", row.ReportID),
					zap.Int64("user_id", row.UserID))
			case errors.Is(err, repository.ErrSettlementNotScheduled):
				// Another sweep got here first.
			default:
				logger.Error("settle rebate failed",
					zap.String("report_id", row.ReportID),
					zap.Error(err))
			}
			continue
		}
		result.SettledCount++
		result.TotalAmount = result.TotalAmount.Add(row.Amount)
		metrics.SettlementsSettledTotal.Inc()
		amount, _ := row.Amount.Float64()
		metrics.SettlementsSettledAmount.Add(amount)
	}

	if result.SettledCount > 0 {
		logger.Info("settlement sweep finished",
			zap.Int("settled", result.SettledCount),
			zap.String("total", result.TotalAmount.String()))
	}
	return result, nil
}

func (s *SettlementService) settleOne(ctx context.Context, row *model.RebateSettlement, now time.Time) error {
	return s.ledger.Transaction(ctx, func(ctx context.Context) error {
		if err := s.settlements.MarkSettled(ctx, row.ID, now.UnixMilli()); err != nil {
			return err
		}
		_, err := s.ledger.Apply(ctx, Mutation{
			UserID:       row.UserID,
			Type:         model.TransactionTypeRebate,
			Amount:       row.Amount,
			BalanceDelta: row.Amount,
			ReferenceID:  row.ReportID,
		})
		return err
	})
}

// PendingAmount totals a user's scheduled, not yet credited rebate.
func (s *SettlementService) PendingAmount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.settlements.SumScheduledByUser(ctx, userID)
}
