package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/claimant-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payment (id, claim_id, payment_cycle_id, card_account_id, payment_amount_in_pence,
			payment_timestamp, payment_reference, payment_status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.ClaimID,
		payment.PaymentCycleID,
		payment.CardAccountID,
		payment.PaymentAmountInPence,
		payment.PaymentTimestamp,
		payment.PaymentReference,
		payment.PaymentStatus,
		payment.FailureReason,
	)
	return err
}

func (r *paymentRepository) FindByPaymentCycleID(ctx context.Context, paymentCycleID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, claim_id, payment_cycle_id, card_account_id, payment_amount_in_pence,
			payment_timestamp, payment_reference, payment_status, failure_reason
		FROM payment
		WHERE payment_cycle_id = $1
		ORDER BY payment_timestamp
	`

	var payments []*domain.Payment
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &payments, query, paymentCycleID); err != nil {
		return nil, err
	}
	return payments, nil
}
