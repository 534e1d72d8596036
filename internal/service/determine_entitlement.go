package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/message"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

// EligibilityEvaluator produces the eligibility and entitlement decision for a cycle.
type EligibilityEvaluator interface {
	EvaluateExistingClaimant(ctx context.Context, claimant domain.Claimant, cycleStartDate time.Time, previous *domain.PaymentCycle) (domain.EligibilityAndEntitlementDecision, error)
}

// DecisionHandler applies a decision to a claim and its current cycle.
type DecisionHandler interface {
	Handle(ctx context.Context, claim *domain.Claim, previous, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error
}

// DetermineEntitlementHandler processes DETERMINE_ENTITLEMENT messages.
type DetermineEntitlementHandler struct {
	claimRepo repository.ClaimRepository
	cycleRepo repository.PaymentCycleRepository
	evaluator EligibilityEvaluator
	decisions DecisionHandler
	logger    *zap.Logger
}

func NewDetermineEntitlementHandler(
	claimRepo repository.ClaimRepository,
	cycleRepo repository.PaymentCycleRepository,
	evaluator EligibilityEvaluator,
	decisions DecisionHandler,
	logger *zap.Logger,
) *DetermineEntitlementHandler {
	return &DetermineEntitlementHandler{
		claimRepo: claimRepo,
		cycleRepo: cycleRepo,
		evaluator: evaluator,
		decisions: decisions,
		logger:    logger.Named("determine_entitlement"),
	}
}

func (h *DetermineEntitlementHandler) MessageType() domain.MessageType {
	return domain.MessageTypeDetermineEntitlement
}

func (h *DetermineEntitlementHandler) ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error) {
	payload, err := message.DecodePayload[domain.DetermineEntitlementMessagePayload](msg)
	if err != nil {
		return domain.MessageStatusFailed, err
	}

	current, err := h.cycleRepo.FindByID(ctx, payload.CurrentPaymentCycleID)
	if err != nil {
		return domain.MessageStatusError, err
	}
	if current.ClaimID != payload.ClaimID {
		return domain.MessageStatusFailed, customError.NewInvariantViolation(
			"payment cycle %s belongs to claim %s, not %s", current.ID, current.ClaimID, payload.ClaimID)
	}
	if current.HasEligibilityDecision() {
		h.logger.Info("payment cycle already has an eligibility decision, skipping",
			zap.String("payment_cycle_id", current.ID.String()),
			zap.String("eligibility_status", string(current.EligibilityStatus)))
		return domain.MessageStatusCompleted, nil
	}

	claim, err := h.claimRepo.FindByID(ctx, payload.ClaimID)
	if err != nil {
		return domain.MessageStatusError, err
	}

	var previous *domain.PaymentCycle
	if payload.PreviousPaymentCycleID.Valid {
		previous, err = h.cycleRepo.FindByID(ctx, payload.PreviousPaymentCycleID.UUID)
		if err != nil {
			return domain.MessageStatusError, err
		}
	}

	decision, err := h.evaluator.EvaluateExistingClaimant(ctx, claim.Claimant, current.CycleStartDate, previous)
	if err != nil {
		return domain.MessageStatusError, err
	}

	if err := h.decisions.Handle(ctx, claim, previous, current, decision); err != nil {
		return domain.MessageStatusError, err
	}
	return domain.MessageStatusCompleted, nil
}
