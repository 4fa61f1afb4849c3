package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/internal/repository"
)

// InviteResult is the VIP community gate decision for one user.
type InviteResult struct {
	Qualified bool   `json:"qualified"`
	Link      string `json:"link,omitempty"`
}

// CommunityService gates access to the VIP community invite link.
type CommunityService struct {
	bindings repository.BindingRepository
	reports  repository.ReportRepository
	config   *ConfigService
}

// NewCommunityService creates a community service.
func NewCommunityService(bindings repository.BindingRepository, reports repository.ReportRepository, config *ConfigService) *CommunityService {
	return &CommunityService{bindings: bindings, reports: reports, config: config}
}

// InviteLink qualifies a user holding a VERIFIED binding or lifetime trade
// volume at or above VIP_GATE_VOLUME. Unqualified users get no link.
func (s *CommunityService) InviteLink(ctx context.Context, userID int64) (*InviteResult, error) {
	qualified, err := s.bindings.HasVerifiedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !qualified {
		gate := s.config.GetDecimal(ctx, model.ConfigKeyVipGateVolume, decimal.NewFromInt(100000))
		volume, err := s.reports.SumVolumeByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		qualified = volume.GreaterThanOrEqual(gate)
	}

	result := &InviteResult{Qualified: qualified}
	if qualified {
		result.Link = s.config.Get(ctx, model.ConfigKeyVipInviteLink, "")
	}
	return result, nil
}
