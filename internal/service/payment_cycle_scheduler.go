package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/lifecycle"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// PaymentCycleCreator stores a new payment cycle for a claim.
type PaymentCycleCreator interface {
	CreateNewPaymentCycle(ctx context.Context, claim *domain.Claim, startDate time.Time) (*domain.PaymentCycle, error)
}

// PaymentCycleScheduler starts the next payment cycle of every live claim that is due one.
type PaymentCycleScheduler struct {
	claimRepo  repository.ClaimRepository
	cycleRepo  repository.PaymentCycleRepository
	transactor repository.Transactor
	creator    PaymentCycleCreator
	queue      lifecycle.MessageQueue
	clock      utils.Clock
	logger     *zap.Logger
}

func NewPaymentCycleScheduler(
	claimRepo repository.ClaimRepository,
	cycleRepo repository.PaymentCycleRepository,
	transactor repository.Transactor,
	creator PaymentCycleCreator,
	queue lifecycle.MessageQueue,
	clock utils.Clock,
	logger *zap.Logger,
) *PaymentCycleScheduler {
	return &PaymentCycleScheduler{
		claimRepo:  claimRepo,
		cycleRepo:  cycleRepo,
		transactor: transactor,
		creator:    creator,
		queue:      queue,
		clock:      clock,
		logger:     logger.Named("payment_cycle_scheduler"),
	}
}

// CreateDueCycles creates a first cycle for claims that have none and the next cycle for claims
// whose current cycle has ended, each with a DETERMINE_ENTITLEMENT message. It returns the
// number of cycles created. A failure for one claim does not stop the others.
func (s *PaymentCycleScheduler) CreateDueCycles(ctx context.Context) (int, error) {
	claims, err := s.claimRepo.FindByStatuses(ctx, domain.ClaimStatusNew, domain.ClaimStatusActive, domain.ClaimStatusPendingExpiry)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	today := utils.StartOfDay(s.clock())
	created := 0
	var errs []error

	for _, claim := range claims {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		ok, err := s.createDueCycle(ctx, claim, today)
		if err != nil {
			s.logger.Error("failed to create payment cycle",
				zap.String("claim_id", claim.ID.String()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("claim %s: %w", claim.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	s.logger.Info("payment cycle run finished",
		zap.Int("claims_checked", len(claims)),
		zap.Int("cycles_created", created))
	return created, errors.Join(errs...)
}

func (s *PaymentCycleScheduler) createDueCycle(ctx context.Context, claim *domain.Claim, today time.Time) (bool, error) {
	current, err := s.cycleRepo.FindCurrentCycleForClaim(ctx, claim.ID)
	switch {
	case errors.Is(err, customError.ErrPaymentCycleNotFound):
		return true, s.startCycle(ctx, claim, today, nil)
	case err != nil:
		return false, err
	}

	if !current.HasEnded(today) {
		return false, nil
	}
	if !current.HasEligibilityDecision() {
		s.logger.Warn("current payment cycle ended before its entitlement was determined",
			zap.String("claim_id", claim.ID.String()),
			zap.String("payment_cycle_id", current.ID.String()))
		return false, nil
	}

	return true, s.startCycle(ctx, claim, current.CycleEndDate.AddDate(0, 0, 1), current)
}

func (s *PaymentCycleScheduler) startCycle(ctx context.Context, claim *domain.Claim, start time.Time, previous *domain.PaymentCycle) error {
	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		cycle, err := s.creator.CreateNewPaymentCycle(ctx, claim, start)
		if err != nil {
			return err
		}

		payload := domain.DetermineEntitlementMessagePayload{
			ClaimID:               claim.ID,
			CurrentPaymentCycleID: cycle.ID,
		}
		if previous != nil {
			payload.PreviousPaymentCycleID = uuid.NullUUID{UUID: previous.ID, Valid: true}
		}
		return s.queue.SendMessage(ctx, domain.MessageTypeDetermineEntitlement, payload)
	})
}
