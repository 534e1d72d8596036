package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/entitlement"
)

// EligibilityChecker asks the eligibility service about a claimant.
type EligibilityChecker interface {
	CheckIdentityAndEligibility(ctx context.Context, claimant domain.Claimant) (domain.IdentityAndEligibilityResponse, error)
}

// EligibilityAndEntitlementService combines the eligibility verdict with the voucher entitlement
// for an existing claimant's next payment cycle.
type EligibilityAndEntitlementService struct {
	checker    EligibilityChecker
	calculator *entitlement.CycleEntitlementCalculator
	logger     *zap.Logger
}

func NewEligibilityAndEntitlementService(checker EligibilityChecker, calculator *entitlement.CycleEntitlementCalculator, logger *zap.Logger) *EligibilityAndEntitlementService {
	return &EligibilityAndEntitlementService{
		checker:    checker,
		calculator: calculator,
		logger:     logger.Named("eligibility"),
	}
}

// EvaluateExistingClaimant checks eligibility and, for an eligible claimant, calculates the
// cycle's entitlement. The previous cycle's entitlement drives pregnancy-to-birth backdating.
func (s *EligibilityAndEntitlementService) EvaluateExistingClaimant(ctx context.Context, claimant domain.Claimant, cycleStartDate time.Time, previous *domain.PaymentCycle) (domain.EligibilityAndEntitlementDecision, error) {
	response, err := s.checker.CheckIdentityAndEligibility(ctx, claimant)
	if err != nil {
		return domain.EligibilityAndEntitlementDecision{}, fmt.Errorf("checking eligibility: %w", err)
	}

	decision := domain.EligibilityAndEntitlementDecision{
		EligibilityStatus:                  response.EligibilityStatus,
		QualifyingBenefitEligibilityStatus: response.QualifyingBenefitEligibilityStatus,
		DateOfBirthOfChildren:              response.DobOfChildrenUnder4,
		IdentityAndEligibilityResponse:     response,
	}

	if decision.IsEligible() {
		var previousEntitlement *domain.PaymentCycleVoucherEntitlement
		if previous != nil {
			previousEntitlement = previous.VoucherEntitlement
		}
		voucherEntitlement, err := s.calculator.CalculateEntitlement(claimant.ExpectedDeliveryDate, response.DobOfChildrenUnder4, previousEntitlement)
		if err != nil {
			return domain.EligibilityAndEntitlementDecision{}, err
		}
		decision.VoucherEntitlement = voucherEntitlement
	}

	s.logger.Debug("evaluated claimant",
		zap.String("claimant_id", claimant.ID.String()),
		zap.Time("cycle_start_date", cycleStartDate),
		zap.String("eligibility_status", string(decision.EligibilityStatus)))
	return decision, nil
}
