package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/domain"
)

// Transactor runs fn in a single database transaction. Repositories called with the ctx
// passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClaimRepository defines the interface for claim data operations
type ClaimRepository interface {
	// Create stores a new claim together with its claimant
	Create(ctx context.Context, claim *domain.Claim) error

	// Save updates the claim and claimant
	Save(ctx context.Context, claim *domain.Claim) error

	// FindByID retrieves a claim by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Claim, error)

	// FindLiveClaimByNino returns the identity's one live claim, if any
	FindLiveClaimByNino(ctx context.Context, nino string) (*domain.Claim, error)

	// FindByStatuses returns claims in any of the given statuses
	FindByStatuses(ctx context.Context, statuses ...domain.ClaimStatus) ([]*domain.Claim, error)
}

// PaymentCycleRepository defines the interface for payment cycle data operations
type PaymentCycleRepository interface {
	// Create stores a new payment cycle
	Create(ctx context.Context, cycle *domain.PaymentCycle) error

	// Save updates a payment cycle
	Save(ctx context.Context, cycle *domain.PaymentCycle) error

	// FindByID retrieves a payment cycle by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCycle, error)

	// FindCurrentCycleForClaim returns the latest cycle of a claim, or ErrPaymentCycleNotFound
	FindCurrentCycleForClaim(ctx context.Context, claimID uuid.UUID) (*domain.PaymentCycle, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// FindByPaymentCycleID retrieves all payments for a cycle, oldest first
	FindByPaymentCycleID(ctx context.Context, paymentCycleID uuid.UUID) ([]*domain.Payment, error)
}

// MessageRepository defines the interface for the durable message store
type MessageRepository interface {
	// Create enqueues a message
	Create(ctx context.Context, message *domain.Message) error

	// FindForProcessing returns up to limit NEW or ERROR messages of a type that are due at now,
	// oldest first
	FindForProcessing(ctx context.Context, messageType domain.MessageType, now time.Time, limit int) ([]*domain.Message, error)

	// UpdateDelivery records the outcome of a delivery attempt
	UpdateDelivery(ctx context.Context, message *domain.Message) error

	// Delete removes a completed message
	Delete(ctx context.Context, id uuid.UUID) error

	// CountPendingByType counts NEW and ERROR messages per type
	CountPendingByType(ctx context.Context) (map[domain.MessageType]int, error)
}
