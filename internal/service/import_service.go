package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradeperk/rebate-engine/internal/metrics"
	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// TradeFetcher pulls trade rows from an exchange bridge over a time
// window. Implemented by bridge.Client.
type TradeFetcher interface {
	FetchTrades(ctx context.Context, exchange string, from, to time.Time) ([]model.TradeRow, error)
}

// ImportSummary reports the outcome of one ingestion run.
type ImportSummary struct {
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService turns parsed trade rows into reports and scheduled
// settlements.
type ImportService struct {
	users     repository.UserRepository
	exchanges repository.ExchangeRepository
	bindings  repository.BindingRepository
	reports   repository.ReportRepository
	rebates   *RebateService
	fetcher   TradeFetcher
}

// NewImportService creates an import service.
func NewImportService(
	users repository.UserRepository,
	exchanges repository.ExchangeRepository,
	bindings repository.BindingRepository,
	reports repository.ReportRepository,
	rebates *RebateService,
	fetcher TradeFetcher,
) *ImportService {
	return &ImportService{
		users:     users,
		exchanges: exchanges,
		bindings:  bindings,
		reports:   reports,
		rebates:   rebates,
		fetcher:   fetcher,
	}
}

// ImportTradeRows ingests rows one by one, each in its own transaction, so
// a bad row never rolls back its neighbors. Rows without a VERIFIED
// binding for their (exchange, uid) are skipped with a recorded reason.
func (s *ImportService) ImportTradeRows(ctx context.Context, rows []model.TradeRow, source string) (*ImportSummary, error) {
	summary := &ImportSummary{Total: len(rows)}

	for i, row := range rows {
		if err := s.importOne(ctx, row, source); err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d (%s/%s): %v", i, row.Exchange, row.UID, err))
			metrics.TradeRowsImportedTotal.WithLabelValues(source, "skipped").Inc()
			continue
		}
		summary.Inserted++
		metrics.TradeRowsImportedTotal.WithLabelValues(source, "inserted").Inc()
	}
	return summary, nil
}

func (s *ImportService) importOne(ctx context.Context, row model.TradeRow, source string) error {
	canonical, err := model.NormalizeExchangeName(row.Exchange)
	if err != nil {
		return err
	}

	exchange, err := s.exchanges.GetOrCreateByName(ctx, canonical)
	if err != nil {
		return err
	}

	binding, err := s.bindings.GetVerified(ctx, exchange.ID, row.UID)
	if err != nil {
		if errors.Is(err, repository.ErrBindingNotFound) {
			return fmt.Errorf("no verified binding for uid %s on %s", row.UID, canonical)
		}
		return err
	}

	manualRebate, err := s.rebates.ComputeManualRebate(ctx, binding.UserID, row.Volume, row.FeeRate)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(row.Raw)
	if err != nil {
		raw = []byte("{}")
	}

	return s.users.Transaction(ctx, func(ctx context.Context) error {
		report := &model.DailyTradeReport{
			ReportID:     uuid.NewString(),
			ExchangeID:   exchange.ID,
			UserID:       binding.UserID,
			TradeDay:     row.TradeDay.UnixMilli(),
			TradeVolume:  row.Volume,
			BaseFeeRate:  NormalizeRate(row.FeeRate),
			AutoRebate:   row.AutoRebate,
			ManualRebate: manualRebate,
			Source:       source,
			Raw:          string(raw),
		}
		if err := s.reports.Upsert(ctx, report); err != nil {
			return err
		}
		_, err := s.rebates.ScheduleSettlement(ctx, report.ReportID, binding.UserID, report.TradeDay, report.ManualRebate)
		return err
	})
}

// SyncFromBridge pulls a time window from one exchange bridge and ingests
// it. Fetch errors abort before any write; a malformed row in the response
// aborts the whole pull.
func (s *ImportService) SyncFromBridge(ctx context.Context, exchange string, from, to time.Time) (*ImportSummary, error) {
	canonical, err := model.NormalizeExchangeName(exchange)
	if err != nil {
		return nil, err
	}

	rows, err := s.fetcher.FetchTrades(ctx, canonical, from, to)
	if err != nil {
		return nil, err
	}
	return s.ImportTradeRows(ctx, rows, "bridge:"+strings.ToLower(canonical))
}
