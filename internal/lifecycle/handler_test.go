package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/entitlement"
	"github.com/segyhp/claimant-engine/internal/mocks"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

var now = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

type handlerMocks struct {
	claimRepo     *mocks.MockClaimRepository
	transactor    *mocks.MockTransactor
	cycleService  *mocks.MockPaymentCycleService
	queue         *mocks.MockMessageQueue
	notifications *mocks.MockNotificationSender
	reporter      *mocks.MockClaimReporter
	auditor       *mocks.MockEventAuditor
}

func newHandler() (*EligibilityDecisionHandler, *handlerMocks) {
	m := &handlerMocks{
		claimRepo:     &mocks.MockClaimRepository{},
		transactor:    &mocks.MockTransactor{},
		cycleService:  &mocks.MockPaymentCycleService{},
		queue:         &mocks.MockMessageQueue{},
		notifications: &mocks.MockNotificationSender{},
		reporter:      &mocks.MockClaimReporter{},
		auditor:       &mocks.MockEventAuditor{},
	}
	m.transactor.On("WithinTransaction", mock.Anything).Return()

	handler := NewEligibilityDecisionHandler(
		m.claimRepo,
		m.transactor,
		m.cycleService,
		m.queue,
		m.notifications,
		m.reporter,
		m.auditor,
		entitlement.NewPregnancyEntitlementCalculator(84),
		entitlement.NewChildDateOfBirthCalculator(),
		utils.FixedClock(now),
		zap.NewNop(),
	)
	return handler, m
}

func (m *handlerMocks) assertExpectations(t *testing.T) {
	m.claimRepo.AssertExpectations(t)
	m.cycleService.AssertExpectations(t)
	m.queue.AssertExpectations(t)
	m.notifications.AssertExpectations(t)
	m.reporter.AssertExpectations(t)
	m.auditor.AssertExpectations(t)
}

// recordSaves captures the claim and card status at each Save.
func (m *handlerMocks) recordSaves() *[]domain.Claim {
	saved := &[]domain.Claim{}
	m.claimRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		*saved = append(*saved, *args.Get(1).(*domain.Claim))
	}).Return(nil)
	return saved
}

func activeClaim() *domain.Claim {
	return &domain.Claim{
		ID:                   uuid.New(),
		Claimant:             domain.Claimant{ID: uuid.New(), FirstName: "Lisa", LastName: "Simpson", Nino: "QQ123456C"},
		ClaimStatus:          domain.ClaimStatusActive,
		ClaimStatusTimestamp: now.AddDate(0, 0, -28),
		CardAccountID:        "card-123",
		CardStatus:           domain.CardStatusActive,
	}
}

func cyclesFor(claim *domain.Claim, previousChildren []time.Time) (*domain.PaymentCycle, *domain.PaymentCycle) {
	previous := &domain.PaymentCycle{
		ID:             uuid.New(),
		ClaimID:        claim.ID,
		CycleStartDate: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		CycleEndDate:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		ChildrenDob:    previousChildren,
		CreatedAt:      now.AddDate(0, 0, -28),
	}
	current := &domain.PaymentCycle{
		ID:                 uuid.New(),
		ClaimID:            claim.ID,
		CycleStartDate:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		CycleEndDate:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		PaymentCycleStatus: domain.PaymentCycleStatusNew,
		CreatedAt:          now.Add(-time.Hour),
	}
	return previous, current
}

func ineligibleDecision(children ...time.Time) domain.EligibilityAndEntitlementDecision {
	return domain.EligibilityAndEntitlementDecision{
		EligibilityStatus:                  domain.EligibilityStatusIneligible,
		QualifyingBenefitEligibilityStatus: domain.QualifyingBenefitNotConfirmed,
		DateOfBirthOfChildren:              children,
		IdentityAndEligibilityResponse: domain.IdentityAndEligibilityResponse{
			IdentityStatus:    domain.IdentityOutcomeMatched,
			EligibilityStatus: domain.EligibilityStatusIneligible,
		},
	}
}

func eligibleDecision(children ...time.Time) domain.EligibilityAndEntitlementDecision {
	return domain.EligibilityAndEntitlementDecision{
		EligibilityStatus:                  domain.EligibilityStatusEligible,
		QualifyingBenefitEligibilityStatus: domain.QualifyingBenefitConfirmed,
		DateOfBirthOfChildren:              children,
		VoucherEntitlement:                 &domain.PaymentCycleVoucherEntitlement{TotalVoucherEntitlement: 8, SingleVoucherValueInPence: 310, TotalVoucherValueInPence: 2480},
		IdentityAndEligibilityResponse: domain.IdentityAndEligibilityResponse{
			IdentityStatus:    domain.IdentityOutcomeMatched,
			EligibilityStatus: domain.EligibilityStatusEligible,
		},
	}
}

func TestHandleIneligibleDecision_ChildDisappearedFromFeed(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	previous, current := cyclesFor(claim, []time.Time{time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)})
	decision := ineligibleDecision()

	saved := m.recordSaves()
	m.reporter.On("SendReportClaimMessage", mock.Anything, claim, decision.IdentityAndEligibilityResponse, domain.ClaimActionUpdatedFromActiveToPendingExpiry).Return(nil).Once()
	m.notifications.On("SendChildDisappearedFromFeed", mock.Anything, claim).Return(nil).Once()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("ApplyPendingExpiryDuration", current).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 2)
	assert.Equal(t, domain.ClaimStatusPendingExpiry, (*saved)[0].ClaimStatus)
	assert.Equal(t, domain.CardStatusActive, (*saved)[0].CardStatus)
	assert.Equal(t, domain.CardStatusPendingCancellation, (*saved)[1].CardStatus)
	assert.Equal(t, now, claim.ClaimStatusTimestamp)
	m.notifications.AssertNotCalled(t, "SendClaimNoLongerEligible", mock.Anything, mock.Anything)
	m.auditor.AssertNotCalled(t, "AuditExpiredClaim", mock.Anything, mock.Anything)
	m.queue.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
	m.transactor.AssertNumberOfCalls(t, "WithinTransaction", 2)
	m.assertExpectations(t)
}

func TestHandleIneligibleDecision_NoChildrenNotPregnantExpires(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	previous, current := cyclesFor(claim, nil)
	decision := ineligibleDecision()

	saved := m.recordSaves()
	m.reporter.On("SendReportClaimMessage", mock.Anything, claim, decision.IdentityAndEligibilityResponse, domain.ClaimActionUpdatedFromActiveToExpired).Return(nil).Once()
	m.notifications.On("SendClaimNoLongerEligible", mock.Anything, claim).Return(nil).Once()
	var auditedCardStatus domain.CardStatus
	m.auditor.On("AuditExpiredClaim", mock.Anything, claim).Run(func(args mock.Arguments) {
		auditedCardStatus = args.Get(1).(*domain.Claim).CardStatus
	}).Return().Once()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 2)
	assert.Equal(t, domain.ClaimStatusExpired, (*saved)[0].ClaimStatus)
	assert.Equal(t, domain.CardStatusActive, (*saved)[0].CardStatus)
	assert.Equal(t, domain.CardStatusPendingCancellation, (*saved)[1].CardStatus)
	m.auditor.AssertNumberOfCalls(t, "AuditExpiredClaim", 1)
	assert.Equal(t, domain.CardStatusPendingCancellation, auditedCardStatus)
	m.cycleService.AssertNotCalled(t, "ApplyPendingExpiryDuration", mock.Anything)
	m.notifications.AssertNotCalled(t, "SendChildDisappearedFromFeed", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestHandleIneligibleDecision_StillPregnantInPendingExpiry(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	claim.ClaimStatus = domain.ClaimStatusPendingExpiry
	claim.Claimant.ExpectedDeliveryDate = sql.NullTime{Time: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	previous, current := cyclesFor(claim, nil)
	decision := ineligibleDecision()

	saved := m.recordSaves()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("ApplyPendingExpiryDuration", current).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 1)
	assert.Equal(t, domain.ClaimStatusPendingExpiry, claim.ClaimStatus)
	m.reporter.AssertNotCalled(t, "SendReportClaimMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.notifications.AssertNotCalled(t, "SendClaimNoLongerEligible", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestHandleEligibleDecision_NewClaimBecomesActive(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	claim.ClaimStatus = domain.ClaimStatusNew
	claim.CardStatus = domain.CardStatusPending
	_, current := cyclesFor(claim, nil)
	decision := eligibleDecision(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	saved := m.recordSaves()
	m.reporter.On("SendReportClaimMessage", mock.Anything, claim, decision.IdentityAndEligibilityResponse, domain.ClaimActionUpdatedFromNewToActive).Return(nil).Once()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)
	m.queue.On("SendMessage", mock.Anything, domain.MessageTypeMakePayment, domain.MakePaymentMessagePayload{
		ClaimID:        claim.ID,
		PaymentCycleID: current.ID,
		CardAccountID:  "card-123",
	}).Return(nil).Once()

	err := handler.HandleEligibleDecision(context.Background(), claim, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 2)
	assert.Equal(t, domain.ClaimStatusActive, claim.ClaimStatus)
	assert.Equal(t, domain.CardStatusPending, claim.CardStatus)
	assert.Equal(t, domain.EligibilityStatusEligible, claim.EligibilityStatus)
	m.notifications.AssertNotCalled(t, "SendClaimNoLongerEligible", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestHandleEligibleDecision_ActiveClaimRestoresCard(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	claim.CardStatus = domain.CardStatusPendingCancellation
	_, current := cyclesFor(claim, nil)
	decision := eligibleDecision()

	saved := m.recordSaves()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)
	m.queue.On("SendMessage", mock.Anything, domain.MessageTypeMakePayment, mock.Anything).Return(nil).Once()

	err := handler.HandleEligibleDecision(context.Background(), claim, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 1)
	assert.Equal(t, domain.CardStatusActive, claim.CardStatus)
	assert.Equal(t, now, claim.CardStatusTimestamp)
	m.reporter.AssertNotCalled(t, "SendReportClaimMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestHandleIneligibleDecision_ReplaysCycleUpdateAfterPartialCommit(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	previous, current := cyclesFor(claim, nil)
	claim.ClaimStatus = domain.ClaimStatusExpired
	claim.ClaimStatusTimestamp = current.CreatedAt.Add(time.Minute)
	decision := ineligibleDecision()

	saved := m.recordSaves()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 1)
	assert.Equal(t, domain.CardStatusPendingCancellation, (*saved)[0].CardStatus)
	m.reporter.AssertNotCalled(t, "SendReportClaimMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.auditor.AssertNotCalled(t, "AuditExpiredClaim", mock.Anything, mock.Anything)
	m.transactor.AssertNumberOfCalls(t, "WithinTransaction", 1)
	m.assertExpectations(t)
}

func TestHandleIneligibleDecision_ReplaysPendingExpiryCycleUpdate(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	previous, current := cyclesFor(claim, nil)
	claim.ClaimStatus = domain.ClaimStatusPendingExpiry
	claim.ClaimStatusTimestamp = current.CreatedAt.Add(time.Minute)
	decision := ineligibleDecision(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))

	saved := m.recordSaves()
	m.cycleService.On("ApplyDecision", current, claim, decision).Return()
	m.cycleService.On("ApplyPendingExpiryDuration", current).Return()
	m.cycleService.On("SavePaymentCycle", mock.Anything, current).Return(nil)

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	require.NoError(t, err)
	require.Len(t, *saved, 1)
	assert.Equal(t, domain.CardStatusPendingCancellation, (*saved)[0].CardStatus)
	m.reporter.AssertNotCalled(t, "SendReportClaimMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.notifications.AssertNotCalled(t, "SendClaimNoLongerEligible", mock.Anything, mock.Anything)
	m.transactor.AssertNumberOfCalls(t, "WithinTransaction", 1)
	m.assertExpectations(t)
}

func TestHandle_InvariantViolations(t *testing.T) {
	otherClaim := activeClaim()

	tests := []struct {
		name  string
		setup func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision)
	}{
		{
			name: "missing current cycle",
			setup: func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision) {
				claim := activeClaim()
				previous, _ := cyclesFor(claim, nil)
				return claim, previous, nil, ineligibleDecision()
			},
		},
		{
			name: "current cycle belongs to another claim",
			setup: func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision) {
				claim := activeClaim()
				previous, _ := cyclesFor(claim, nil)
				_, current := cyclesFor(otherClaim, nil)
				return claim, previous, current, ineligibleDecision()
			},
		},
		{
			name: "previous cycle belongs to another claim",
			setup: func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision) {
				claim := activeClaim()
				_, current := cyclesFor(claim, nil)
				previous, _ := cyclesFor(otherClaim, nil)
				return claim, previous, current, ineligibleDecision()
			},
		},
		{
			name: "eligible without entitlement",
			setup: func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision) {
				claim := activeClaim()
				previous, current := cyclesFor(claim, nil)
				decision := eligibleDecision()
				decision.VoucherEntitlement = nil
				return claim, previous, current, decision
			},
		},
		{
			name: "terminal claim without committed transition",
			setup: func() (*domain.Claim, *domain.PaymentCycle, *domain.PaymentCycle, domain.EligibilityAndEntitlementDecision) {
				claim := activeClaim()
				claim.ClaimStatus = domain.ClaimStatusRejected
				previous, current := cyclesFor(claim, nil)
				return claim, previous, current, ineligibleDecision()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := newHandler()
			claim, previous, current, decision := tt.setup()

			err := handler.Handle(context.Background(), claim, previous, current, decision)

			assert.True(t, customError.IsInvariantViolation(err), "expected invariant violation, got %v", err)
			m.claimRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleIneligibleDecision_ReportFailureAbortsBeforeCycleUpdate(t *testing.T) {
	handler, m := newHandler()
	claim := activeClaim()
	previous, current := cyclesFor(claim, nil)
	decision := ineligibleDecision()

	m.recordSaves()
	m.reporter.On("SendReportClaimMessage", mock.Anything, claim, mock.Anything, mock.Anything).Return(errors.New("queue unavailable"))

	err := handler.HandleIneligibleDecision(context.Background(), claim, previous, current, decision)

	assert.Error(t, err)
	assert.False(t, customError.IsInvariantViolation(err))
	m.cycleService.AssertNotCalled(t, "SavePaymentCycle", mock.Anything, mock.Anything)
	m.auditor.AssertNotCalled(t, "AuditExpiredClaim", mock.Anything, mock.Anything)
}
