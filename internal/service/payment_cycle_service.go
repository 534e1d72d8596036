package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// PaymentCycleService creates payment cycles and applies eligibility decisions to them.
type PaymentCycleService struct {
	cycleRepo repository.PaymentCycleRepository
	config    config.PaymentCycleConfig
	clock     utils.Clock
}

func NewPaymentCycleService(cycleRepo repository.PaymentCycleRepository, cfg config.PaymentCycleConfig, clock utils.Clock) *PaymentCycleService {
	return &PaymentCycleService{
		cycleRepo: cycleRepo,
		config:    cfg,
		clock:     clock,
	}
}

// CreateNewPaymentCycle stores a NEW cycle of the configured duration starting on startDate.
// The cycle has no eligibility decision until DETERMINE_ENTITLEMENT is processed for it.
func (s *PaymentCycleService) CreateNewPaymentCycle(ctx context.Context, claim *domain.Claim, startDate time.Time) (*domain.PaymentCycle, error) {
	start := utils.StartOfDay(startDate)
	now := s.clock()

	cycle := &domain.PaymentCycle{
		ID:                   uuid.New(),
		ClaimID:              claim.ID,
		CycleStartDate:       start,
		CycleEndDate:         utils.CycleEndDate(start, s.config.CycleDurationInDays),
		PaymentCycleStatus:   domain.PaymentCycleStatusNew,
		ExpectedDeliveryDate: claim.Claimant.ExpectedDeliveryDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.cycleRepo.Create(ctx, cycle); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return cycle, nil
}

// ApplyDecision records the eligibility decision and its entitlement on the cycle.
func (s *PaymentCycleService) ApplyDecision(cycle *domain.PaymentCycle, claim *domain.Claim, decision domain.EligibilityAndEntitlementDecision) {
	cycle.EligibilityStatus = decision.EligibilityStatus
	cycle.ChildrenDob = decision.ChildrenDob()
	cycle.ExpectedDeliveryDate = claim.Claimant.ExpectedDeliveryDate
	cycle.ApplyEntitlement(decision.VoucherEntitlement)
}

// ApplyPendingExpiryDuration shortens the cycle to the pending-expiry duration.
func (s *PaymentCycleService) ApplyPendingExpiryDuration(cycle *domain.PaymentCycle) {
	cycle.CycleEndDate = utils.CycleEndDate(cycle.CycleStartDate, s.config.PendingExpiryCycleDurationInDays)
}

func (s *PaymentCycleService) SavePaymentCycle(ctx context.Context, cycle *domain.PaymentCycle) error {
	cycle.UpdatedAt = s.clock()
	if err := s.cycleRepo.Save(ctx, cycle); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
