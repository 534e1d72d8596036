package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/entitlement"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// MessageQueue enqueues follow-on messages.
type MessageQueue interface {
	SendMessage(ctx context.Context, messageType domain.MessageType, payload any) error
}

// NotificationSender requests claimant notifications.
type NotificationSender interface {
	SendClaimNoLongerEligible(ctx context.Context, claim *domain.Claim) error
	SendChildDisappearedFromFeed(ctx context.Context, claim *domain.Claim) error
}

// ClaimReporter records claim transitions for reporting.
type ClaimReporter interface {
	SendReportClaimMessage(ctx context.Context, claim *domain.Claim, response domain.IdentityAndEligibilityResponse, action domain.ClaimAction) error
}

// EventAuditor records audit events.
type EventAuditor interface {
	AuditExpiredClaim(ctx context.Context, claim *domain.Claim)
}

// PaymentCycleService updates and stores payment cycles.
type PaymentCycleService interface {
	ApplyDecision(cycle *domain.PaymentCycle, claim *domain.Claim, decision domain.EligibilityAndEntitlementDecision)
	ApplyPendingExpiryDuration(cycle *domain.PaymentCycle)
	SavePaymentCycle(ctx context.Context, cycle *domain.PaymentCycle) error
}

// EligibilityDecisionHandler moves a claim through its lifecycle once a fresh eligibility
// decision is known for the current payment cycle.
//
// Changes are committed in two transactions. The first commits the claim status with its
// report and notification messages and is authoritative: a redelivered message whose claim
// status timestamp is not before the cycle's creation only replays the second, which commits
// the card status, the payment cycle and any MAKE_PAYMENT message.
type EligibilityDecisionHandler struct {
	claimRepo     repository.ClaimRepository
	transactor    repository.Transactor
	cycleService  PaymentCycleService
	queue         MessageQueue
	notifications NotificationSender
	reporter      ClaimReporter
	auditor       EventAuditor
	pregnancy     *entitlement.PregnancyEntitlementCalculator
	childDob      *entitlement.ChildDateOfBirthCalculator
	clock         utils.Clock
	logger        *zap.Logger
}

func NewEligibilityDecisionHandler(
	claimRepo repository.ClaimRepository,
	transactor repository.Transactor,
	cycleService PaymentCycleService,
	queue MessageQueue,
	notifications NotificationSender,
	reporter ClaimReporter,
	auditor EventAuditor,
	pregnancy *entitlement.PregnancyEntitlementCalculator,
	childDob *entitlement.ChildDateOfBirthCalculator,
	clock utils.Clock,
	logger *zap.Logger,
) *EligibilityDecisionHandler {
	return &EligibilityDecisionHandler{
		claimRepo:     claimRepo,
		transactor:    transactor,
		cycleService:  cycleService,
		queue:         queue,
		notifications: notifications,
		reporter:      reporter,
		auditor:       auditor,
		pregnancy:     pregnancy,
		childDob:      childDob,
		clock:         clock,
		logger:        logger.Named("lifecycle"),
	}
}

// Handle routes the decision to the eligible or ineligible path.
func (h *EligibilityDecisionHandler) Handle(ctx context.Context, claim *domain.Claim, previous, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error {
	if decision.IsEligible() {
		return h.HandleEligibleDecision(ctx, claim, current, decision)
	}
	return h.HandleIneligibleDecision(ctx, claim, previous, current, decision)
}

// HandleEligibleDecision applies the entitlement to the current cycle, activates the claim and
// requests a payment.
func (h *EligibilityDecisionHandler) HandleEligibleDecision(ctx context.Context, claim *domain.Claim, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error {
	if err := validateInputs(claim, nil, current); err != nil {
		return err
	}
	if decision.VoucherEntitlement == nil {
		return customError.NewInvariantViolation("eligible decision for claim %s has no voucher entitlement", claim.ID)
	}

	return h.evaluate(ctx, claim, current, decision, Facts{
		From:       claim.ClaimStatus,
		CardStatus: claim.CardStatus,
		Eligible:   true,
	})
}

// HandleIneligibleDecision expires the claim or gives it a shorter pending-expiry cycle,
// depending on whether children or a pregnancy carry over from the previous cycle.
func (h *EligibilityDecisionHandler) HandleIneligibleDecision(ctx context.Context, claim *domain.Claim, previous, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error {
	if err := validateInputs(claim, previous, current); err != nil {
		return err
	}

	facts := Facts{
		From:               claim.ClaimStatus,
		CardStatus:         claim.CardStatus,
		ChildrenNow:        decision.HasChildren(),
		PregnancyCarryOver: h.pregnancy.IsEntitledToVoucher(claim.Claimant.ExpectedDeliveryDate, current.CycleStartDate),
	}
	if !facts.ChildrenNow && previous != nil && h.childDob.HadChildrenUnderFourAtStartOfPaymentCycle(previous) {
		facts.ChildCarryOver = h.childDob.HasChildrenUnderFourAtGivenDate(previous.ChildrenDob, current.CycleStartDate)
	}

	return h.evaluate(ctx, claim, current, decision, facts)
}

func (h *EligibilityDecisionHandler) evaluate(ctx context.Context, claim *domain.Claim, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision, facts Facts) error {
	if h.alreadyTransitioned(claim, current) {
		h.logger.Info("claim status already committed for payment cycle, replaying cycle update",
			zap.String("claim_id", claim.ID.String()),
			zap.String("payment_cycle_id", current.ID.String()),
			zap.String("claim_status", string(claim.ClaimStatus)))
		return h.replayCycleUpdate(ctx, claim, current, decision)
	}

	transition, err := Decide(facts)
	if err != nil {
		return fmt.Errorf("claim %s: %w", claim.ID, err)
	}

	if err := h.commitClaimStatus(ctx, claim, decision, transition); err != nil {
		return err
	}
	if err := h.commitCycleUpdate(ctx, claim, current, decision, transition); err != nil {
		return err
	}
	if transition.AuditExpired {
		h.auditor.AuditExpiredClaim(ctx, claim)
	}
	return nil
}

// alreadyTransitioned reports whether the claim status was committed by an earlier delivery
// of the same evaluation.
func (h *EligibilityDecisionHandler) alreadyTransitioned(claim *domain.Claim, current *domain.PaymentCycle) bool {
	switch claim.ClaimStatus {
	case domain.ClaimStatusActive, domain.ClaimStatusPendingExpiry, domain.ClaimStatusExpired:
	default:
		return false
	}
	if claim.ClaimStatusTimestamp.IsZero() || current.CreatedAt.IsZero() {
		return false
	}
	return !claim.ClaimStatusTimestamp.Before(current.CreatedAt)
}

func (h *EligibilityDecisionHandler) commitClaimStatus(ctx context.Context, claim *domain.Claim, decision domain.EligibilityAndEntitlementDecision, transition Transition) error {
	if !transition.Changed {
		return nil
	}

	now := h.clock()
	err := h.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		claim.UpdateClaimStatus(transition.To, now)
		claim.EligibilityStatus = decision.EligibilityStatus
		claim.EligibilityStatusTimestamp = now
		if err := h.claimRepo.Save(ctx, claim); err != nil {
			return err
		}

		if err := h.reporter.SendReportClaimMessage(ctx, claim, decision.IdentityAndEligibilityResponse, transition.Action); err != nil {
			return err
		}

		switch transition.Notification {
		case domain.EmailTypeClaimNoLongerEligible:
			return h.notifications.SendClaimNoLongerEligible(ctx, claim)
		case domain.EmailTypeNoChildOnFeedNoLongerEligible:
			return h.notifications.SendChildDisappearedFromFeed(ctx, claim)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("committing claim status %s for claim %s: %w", transition.To, claim.ID, err)
	}

	h.logger.Info("claim status updated",
		zap.String("claim_id", claim.ID.String()),
		zap.String("claim_action", string(transition.Action)))
	return nil
}

func (h *EligibilityDecisionHandler) commitCycleUpdate(ctx context.Context, claim *domain.Claim, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision, transition Transition) error {
	now := h.clock()
	err := h.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if transition.CardStatus != "" && transition.CardStatus != claim.CardStatus {
			claim.UpdateCardStatus(transition.CardStatus, now)
		}
		if !transition.Changed {
			claim.EligibilityStatus = decision.EligibilityStatus
			claim.EligibilityStatusTimestamp = now
		}
		if err := h.claimRepo.Save(ctx, claim); err != nil {
			return err
		}

		h.cycleService.ApplyDecision(current, claim, decision)
		if transition.ShortenCycle {
			h.cycleService.ApplyPendingExpiryDuration(current)
		}
		if err := h.cycleService.SavePaymentCycle(ctx, current); err != nil {
			return err
		}

		if !transition.MakePayment {
			return nil
		}
		return h.queue.SendMessage(ctx, domain.MessageTypeMakePayment, domain.MakePaymentMessagePayload{
			ClaimID:        claim.ID,
			PaymentCycleID: current.ID,
			CardAccountID:  claim.CardAccountID,
		})
	})
	if err != nil {
		return fmt.Errorf("committing payment cycle %s for claim %s: %w", current.ID, claim.ID, err)
	}
	return nil
}

// replayCycleUpdate rebuilds the second commit from the claim status the first one left behind.
func (h *EligibilityDecisionHandler) replayCycleUpdate(ctx context.Context, claim *domain.Claim, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error {
	transition := Transition{From: claim.ClaimStatus, To: claim.ClaimStatus}

	switch claim.ClaimStatus {
	case domain.ClaimStatusActive:
		if !decision.IsEligible() || decision.VoucherEntitlement == nil {
			return fmt.Errorf("claim %s is ACTIVE for payment cycle %s but the decision is %s", claim.ID, current.ID, decision.EligibilityStatus)
		}
		transition.MakePayment = true
		if claim.CardStatus == domain.CardStatusPendingCancellation {
			transition.CardStatus = domain.CardStatusActive
		}
	case domain.ClaimStatusPendingExpiry:
		transition.ShortenCycle = true
		transition.CardStatus = domain.CardStatusPendingCancellation
	case domain.ClaimStatusExpired:
		transition.CardStatus = domain.CardStatusPendingCancellation
	default:
		return customError.NewInvariantViolation("claim %s has status %s committed for payment cycle %s", claim.ID, claim.ClaimStatus, current.ID)
	}

	return h.commitCycleUpdate(ctx, claim, current, decision, transition)
}

func validateInputs(claim *domain.Claim, previous, current *domain.PaymentCycle) error {
	if claim == nil {
		return customError.NewInvariantViolation("claim must not be nil")
	}
	if current == nil {
		return customError.NewInvariantViolation("current payment cycle for claim %s must not be nil", claim.ID)
	}
	if current.ClaimID != claim.ID {
		return customError.NewInvariantViolation("payment cycle %s belongs to claim %s, not %s", current.ID, current.ClaimID, claim.ID)
	}
	if previous != nil && previous.ClaimID != claim.ID {
		return customError.NewInvariantViolation("previous payment cycle %s belongs to claim %s, not %s", previous.ID, previous.ClaimID, claim.ID)
	}
	return nil
}
