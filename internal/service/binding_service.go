package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
	"github.com/tradeperk/rebate-engine/pkg/errs"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

var errEmptyUID = errs.NewWithStatus("INVALID_UID", "uid must not be empty", http.StatusBadRequest)

// UIDVerifier checks trade activity for a uid on an exchange bridge.
// Implemented by bridge.Client; injected so binding tests need no HTTP.
type UIDVerifier interface {
	VerifyUIDHasTrade(ctx context.Context, exchange, uid string) (bool, error)
}

// BindingService runs the user/exchange UID binding workflow.
type BindingService struct {
	users     repository.UserRepository
	exchanges repository.ExchangeRepository
	bindings  repository.BindingRepository
	verifier  UIDVerifier
	config    *ConfigService
}

// NewBindingService creates a binding service.
func NewBindingService(
	users repository.UserRepository,
	exchanges repository.ExchangeRepository,
	bindings repository.BindingRepository,
	verifier UIDVerifier,
	config *ConfigService,
) *BindingService {
	return &BindingService{
		users:     users,
		exchanges: exchanges,
		bindings:  bindings,
		verifier:  verifier,
		config:    config,
	}
}

// RequestBinding validates eligibility against the exchange bridge and then
// upserts the (user, exchange) binding. The bridge check happens before any
// row is written: an ineligible or unverifiable uid leaves no trace. With
// AUTO_BIND_APPROVE on (the default) the binding is VERIFIED immediately,
// otherwise it waits PENDING for review.
func (s *BindingService) RequestBinding(ctx context.Context, userID int64, exchange, uid string) (*model.UserBinding, error) {
	canonical, err := model.NormalizeExchangeName(exchange)
	if err != nil {
		return nil, err
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errEmptyUID
	}

	eligible, err := s.verifier.VerifyUIDHasTrade(ctx, canonical, uid)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrUIDNotEligible
	}

	if _, err := s.users.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	ex, err := s.exchanges.GetOrCreateByName(ctx, canonical)
	if err != nil {
		return nil, err
	}

	binding := &model.UserBinding{
		UserID:     userID,
		ExchangeID: ex.ID,
		UID:        uid,
		Status:     model.BindingStatusPending,
	}
	if s.config.GetBool(ctx, model.ConfigKeyAutoBindApprove, true) {
		binding.Status = model.BindingStatusVerified
		binding.ReviewedAt = time.Now().UnixMilli()
	}

	if err := s.bindings.Upsert(ctx, binding); err != nil {
		return nil, err
	}

	stored, err := s.bindings.GetByUserExchange(ctx, userID, ex.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("binding requested",
		zap.Int64("user_id", userID),
		zap.String("exchange", canonical),
		zap.String("status", string(stored.Status)))
	return stored, nil
}

// ApproveBinding marks a binding VERIFIED with reviewer attribution.
func (s *BindingService) ApproveBinding(ctx context.Context, id, reviewerID int64) error {
	return s.bindings.Review(ctx, id, model.BindingStatusVerified, reviewerID, "")
}

// RejectBinding marks a binding REJECTED with a reason.
func (s *BindingService) RejectBinding(ctx context.Context, id, reviewerID int64, reason string) error {
	return s.bindings.Review(ctx, id, model.BindingStatusRejected, reviewerID, reason)
}

// ListPending returns bindings waiting for review, oldest first.
func (s *BindingService) ListPending(ctx context.Context, page *repository.Pagination) ([]*model.UserBinding, error) {
	return s.bindings.ListByStatus(ctx, model.BindingStatusPending, page)
}
