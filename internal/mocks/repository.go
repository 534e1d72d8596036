package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/claimant-engine/internal/domain"
)

// MockTransactor runs the callback inline and records how many transactions were opened.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) Save(ctx context.Context, claim *domain.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindLiveClaimByNino(ctx context.Context, nino string) (*domain.Claim, error) {
	args := m.Called(ctx, nino)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindByStatuses(ctx context.Context, statuses ...domain.ClaimStatus) ([]*domain.Claim, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Claim), args.Error(1)
}

type MockPaymentCycleRepository struct {
	mock.Mock
}

func (m *MockPaymentCycleRepository) Create(ctx context.Context, cycle *domain.PaymentCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockPaymentCycleRepository) Save(ctx context.Context, cycle *domain.PaymentCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockPaymentCycleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCycle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentCycle), args.Error(1)
}

func (m *MockPaymentCycleRepository) FindCurrentCycleForClaim(ctx context.Context, claimID uuid.UUID) (*domain.PaymentCycle, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentCycle), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByPaymentCycleID(ctx context.Context, paymentCycleID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, paymentCycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) FindForProcessing(ctx context.Context, messageType domain.MessageType, now time.Time, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, messageType, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateDelivery(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageRepository) CountPendingByType(ctx context.Context) (map[domain.MessageType]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.MessageType]int), args.Error(1)
}
