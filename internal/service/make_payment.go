package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/client"
	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/message"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// CardDepositor credits a claimant's card.
type CardDepositor interface {
	DepositFunds(ctx context.Context, cardAccountID string, amountInPence int, reference string) (string, error)
}

// PaymentFailureNotifier tells the claimant a payment could not be made.
type PaymentFailureNotifier interface {
	SendPaymentFailed(ctx context.Context, claimID uuid.UUID) error
}

// MakePaymentHandler processes MAKE_PAYMENT messages. A cycle is paid at most once: a cycle
// already marked FULL_PAYMENT_MADE completes the message without another deposit.
type MakePaymentHandler struct {
	claimRepo   repository.ClaimRepository
	cycleRepo   repository.PaymentCycleRepository
	paymentRepo repository.PaymentRepository
	transactor  repository.Transactor
	card        CardDepositor
	notifier    PaymentFailureNotifier
	clock       utils.Clock
	logger      *zap.Logger
}

func NewMakePaymentHandler(
	claimRepo repository.ClaimRepository,
	cycleRepo repository.PaymentCycleRepository,
	paymentRepo repository.PaymentRepository,
	transactor repository.Transactor,
	card CardDepositor,
	notifier PaymentFailureNotifier,
	clock utils.Clock,
	logger *zap.Logger,
) *MakePaymentHandler {
	return &MakePaymentHandler{
		claimRepo:   claimRepo,
		cycleRepo:   cycleRepo,
		paymentRepo: paymentRepo,
		transactor:  transactor,
		card:        card,
		notifier:    notifier,
		clock:       clock,
		logger:      logger.Named("make_payment"),
	}
}

func (h *MakePaymentHandler) MessageType() domain.MessageType {
	return domain.MessageTypeMakePayment
}

func (h *MakePaymentHandler) ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error) {
	payload, cycle, err := h.load(ctx, msg)
	if err != nil {
		return domain.MessageStatusError, err
	}

	logger := h.logger.With(
		zap.String("claim_id", payload.ClaimID.String()),
		zap.String("payment_cycle_id", cycle.ID.String()))

	if cycle.PaymentCycleStatus == domain.PaymentCycleStatusFullPaymentMade {
		logger.Info("payment cycle already paid, skipping")
		return domain.MessageStatusCompleted, nil
	}
	if cycle.TotalEntitlementAmountInPence < 0 {
		return domain.MessageStatusFailed, customError.NewInvariantViolation(
			"payment cycle %s has negative entitlement %d", cycle.ID, cycle.TotalEntitlementAmountInPence)
	}

	cardAccountID, err := h.cardAccountID(ctx, payload)
	if err != nil {
		return domain.MessageStatusError, err
	}

	amount := cycle.TotalEntitlementAmountInPence
	reference := ""
	if amount > 0 {
		reference, err = h.card.DepositFunds(ctx, cardAccountID, amount, cycle.ID.String())
		if err != nil {
			if client.IsRejected(err) {
				return domain.MessageStatusError, customError.NewFailureEvent(
					customError.FailureEventPaymentFailed,
					fmt.Sprintf("Card provider rejected deposit of %d pence for payment cycle %s", amount, cycle.ID),
					map[string]any{
						"claim_id":         payload.ClaimID.String(),
						"payment_cycle_id": cycle.ID.String(),
						"card_account_id":  cardAccountID,
						"amount_in_pence":  amount,
					},
					err,
				)
			}
			return domain.MessageStatusError, err
		}
	}

	err = h.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := h.paymentRepo.Create(ctx, h.newPayment(payload, cycle, cardAccountID, domain.PaymentStatusSuccess, reference, "")); err != nil {
			return customError.WrapDatabaseError(err)
		}
		cycle.PaymentCycleStatus = domain.PaymentCycleStatusFullPaymentMade
		cycle.UpdatedAt = h.clock()
		if err := h.cycleRepo.Save(ctx, cycle); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return domain.MessageStatusError, err
	}

	logger.Info("payment made",
		zap.Int("amount_in_pence", amount),
		zap.String("amount", utils.PoundsFromPence(int64(amount)).StringFixed(2)),
		zap.String("payment_reference", reference))
	return domain.MessageStatusCompleted, nil
}

// ProcessFailedMessage records the failed payment, marks the cycle PAYMENT_FAILED and, the first
// time the cycle fails, tells the claimant.
func (h *MakePaymentHandler) ProcessFailedMessage(ctx context.Context, failure *customError.FailureEvent, msg *domain.Message) error {
	payload, cycle, err := h.load(ctx, msg)
	if err != nil {
		return err
	}

	cardAccountID := payload.CardAccountID
	if id, ok := failure.Metadata["card_account_id"].(string); ok && id != "" {
		cardAccountID = id
	}
	alreadyFailed := cycle.PaymentCycleStatus == domain.PaymentCycleStatusPaymentFailed

	return h.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := h.paymentRepo.Create(ctx, h.newPayment(payload, cycle, cardAccountID, domain.PaymentStatusFailure, "", failure.Error())); err != nil {
			return customError.WrapDatabaseError(err)
		}
		cycle.PaymentCycleStatus = domain.PaymentCycleStatusPaymentFailed
		cycle.UpdatedAt = h.clock()
		if err := h.cycleRepo.Save(ctx, cycle); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if alreadyFailed {
			return nil
		}
		return h.notifier.SendPaymentFailed(ctx, payload.ClaimID)
	})
}

func (h *MakePaymentHandler) load(ctx context.Context, msg *domain.Message) (domain.MakePaymentMessagePayload, *domain.PaymentCycle, error) {
	payload, err := message.DecodePayload[domain.MakePaymentMessagePayload](msg)
	if err != nil {
		return payload, nil, err
	}
	cycle, err := h.cycleRepo.FindByID(ctx, payload.PaymentCycleID)
	if err != nil {
		return payload, nil, err
	}
	if cycle.ClaimID != payload.ClaimID {
		return payload, nil, customError.NewInvariantViolation(
			"payment cycle %s belongs to claim %s, not %s", cycle.ID, cycle.ClaimID, payload.ClaimID)
	}
	return payload, cycle, nil
}

// cardAccountID prefers the id carried by the message and falls back to the claim's card, which
// may have been issued after the message was sent.
func (h *MakePaymentHandler) cardAccountID(ctx context.Context, payload domain.MakePaymentMessagePayload) (string, error) {
	if payload.CardAccountID != "" {
		return payload.CardAccountID, nil
	}
	claim, err := h.claimRepo.FindByID(ctx, payload.ClaimID)
	if err != nil {
		return "", err
	}
	if claim.CardAccountID == "" {
		return "", errors.New("claim " + claim.ID.String() + " has no card account yet")
	}
	return claim.CardAccountID, nil
}

func (h *MakePaymentHandler) newPayment(payload domain.MakePaymentMessagePayload, cycle *domain.PaymentCycle, cardAccountID string, status domain.PaymentStatus, reference, failureReason string) *domain.Payment {
	return &domain.Payment{
		ID:                   uuid.New(),
		ClaimID:              payload.ClaimID,
		PaymentCycleID:       cycle.ID,
		CardAccountID:        cardAccountID,
		PaymentAmountInPence: cycle.TotalEntitlementAmountInPence,
		PaymentTimestamp:     h.clock(),
		PaymentReference:     reference,
		PaymentStatus:        status,
		FailureReason:        failureReason,
	}
}
