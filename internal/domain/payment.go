package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailure PaymentStatus = "FAILURE"
)

// Payment records one deposit attempt for a payment cycle.
type Payment struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	ClaimID              uuid.UUID     `json:"claim_id" db:"claim_id"`
	PaymentCycleID       uuid.UUID     `json:"payment_cycle_id" db:"payment_cycle_id"`
	CardAccountID        string        `json:"card_account_id" db:"card_account_id"`
	PaymentAmountInPence int           `json:"payment_amount_in_pence" db:"payment_amount_in_pence"`
	PaymentTimestamp     time.Time     `json:"payment_timestamp" db:"payment_timestamp"`
	PaymentReference     string        `json:"payment_reference" db:"payment_reference"`
	PaymentStatus        PaymentStatus `json:"payment_status" db:"payment_status"`
	FailureReason        string        `json:"failure_reason,omitempty" db:"failure_reason"`
}

func (Payment) TableName() string {
	return "payment"
}
