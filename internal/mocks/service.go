package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/claimant-engine/internal/client"
	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

type MockMessageQueue struct {
	mock.Mock
}

func (m *MockMessageQueue) SendMessage(ctx context.Context, messageType domain.MessageType, payload any) error {
	args := m.Called(ctx, messageType, payload)
	return args.Error(0)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) SendClaimNoLongerEligible(ctx context.Context, claim *domain.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockNotificationSender) SendChildDisappearedFromFeed(ctx context.Context, claim *domain.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

type MockClaimReporter struct {
	mock.Mock
}

func (m *MockClaimReporter) SendReportClaimMessage(ctx context.Context, claim *domain.Claim, response domain.IdentityAndEligibilityResponse, action domain.ClaimAction) error {
	args := m.Called(ctx, claim, response, action)
	return args.Error(0)
}

type MockEventAuditor struct {
	mock.Mock
}

func (m *MockEventAuditor) AuditExpiredClaim(ctx context.Context, claim *domain.Claim) {
	m.Called(ctx, claim)
}

func (m *MockEventAuditor) AuditFailedEvent(ctx context.Context, failure *customError.FailureEvent) {
	m.Called(ctx, failure)
}

type MockPaymentCycleService struct {
	mock.Mock
}

func (m *MockPaymentCycleService) ApplyDecision(cycle *domain.PaymentCycle, claim *domain.Claim, decision domain.EligibilityAndEntitlementDecision) {
	m.Called(cycle, claim, decision)
}

func (m *MockPaymentCycleService) ApplyPendingExpiryDuration(cycle *domain.PaymentCycle) {
	m.Called(cycle)
}

func (m *MockPaymentCycleService) CreateNewPaymentCycle(ctx context.Context, claim *domain.Claim, startDate time.Time) (*domain.PaymentCycle, error) {
	args := m.Called(ctx, claim, startDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleService) SavePaymentCycle(ctx context.Context, cycle *domain.PaymentCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

type MockEligibilityAndEntitlementService struct {
	mock.Mock
}

func (m *MockEligibilityAndEntitlementService) EvaluateExistingClaimant(ctx context.Context, claimant domain.Claimant, cycleStartDate time.Time, previous *domain.PaymentCycle) (domain.EligibilityAndEntitlementDecision, error) {
	args := m.Called(ctx, claimant, cycleStartDate, previous)
	return args.Get(0).(domain.EligibilityAndEntitlementDecision), args.Error(1)
}

type MockDecisionHandler struct {
	mock.Mock
}

func (m *MockDecisionHandler) Handle(ctx context.Context, claim *domain.Claim, previous, current *domain.PaymentCycle, decision domain.EligibilityAndEntitlementDecision) error {
	args := m.Called(ctx, claim, previous, current, decision)
	return args.Error(0)
}

type MockPaymentFailureNotifier struct {
	mock.Mock
}

func (m *MockPaymentFailureNotifier) SendPaymentFailed(ctx context.Context, claimID uuid.UUID) error {
	args := m.Called(ctx, claimID)
	return args.Error(0)
}

type MockEligibilityClient struct {
	mock.Mock
}

func (m *MockEligibilityClient) CheckIdentityAndEligibility(ctx context.Context, claimant domain.Claimant) (domain.IdentityAndEligibilityResponse, error) {
	args := m.Called(ctx, claimant)
	return args.Get(0).(domain.IdentityAndEligibilityResponse), args.Error(1)
}

type MockCardClient struct {
	mock.Mock
}

func (m *MockCardClient) DepositFunds(ctx context.Context, cardAccountID string, amountInPence int, reference string) (string, error) {
	args := m.Called(ctx, cardAccountID, amountInPence, reference)
	return args.String(0), args.Error(1)
}

type MockReportingClient struct {
	mock.Mock
}

func (m *MockReportingClient) ReportClaim(ctx context.Context, report domain.ReportClaimMessagePayload) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type MockEmailClient struct {
	mock.Mock
}

func (m *MockEmailClient) SendEmail(ctx context.Context, req client.EmailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
