package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type PaymentCycleStatus string

const (
	PaymentCycleStatusNew             PaymentCycleStatus = "NEW"
	PaymentCycleStatusFullPaymentMade PaymentCycleStatus = "FULL_PAYMENT_MADE"
	PaymentCycleStatusPaymentFailed   PaymentCycleStatus = "PAYMENT_FAILED"
)

// PaymentCycle is one recurring period for a claim. It references its claim by ID only.
type PaymentCycle struct {
	ID                            uuid.UUID                       `json:"id" db:"id"`
	ClaimID                       uuid.UUID                       `json:"claim_id" db:"claim_id"`
	CycleStartDate                time.Time                       `json:"cycle_start_date" db:"cycle_start_date"`
	CycleEndDate                  time.Time                       `json:"cycle_end_date" db:"cycle_end_date"`
	PaymentCycleStatus            PaymentCycleStatus              `json:"payment_cycle_status" db:"payment_cycle_status"`
	EligibilityStatus             EligibilityStatus               `json:"eligibility_status,omitempty" db:"eligibility_status"`
	ChildrenDob                   []time.Time                     `json:"children_dob" db:"-"`
	ExpectedDeliveryDate          sql.NullTime                    `json:"expected_delivery_date" db:"expected_delivery_date"`
	VoucherEntitlement            *PaymentCycleVoucherEntitlement `json:"voucher_entitlement,omitempty" db:"-"`
	TotalVouchers                 int                             `json:"total_vouchers" db:"total_vouchers"`
	TotalEntitlementAmountInPence int                             `json:"total_entitlement_amount_in_pence" db:"total_entitlement_amount_in_pence"`
	CreatedAt                     time.Time                       `json:"created_at" db:"created_at"`
	UpdatedAt                     time.Time                       `json:"updated_at" db:"updated_at"`
}

// HasEligibilityDecision reports whether an eligibility decision was already applied to the cycle.
func (p *PaymentCycle) HasEligibilityDecision() bool {
	return p.EligibilityStatus != ""
}

// ApplyEntitlement copies the entitlement totals onto the cycle.
func (p *PaymentCycle) ApplyEntitlement(entitlement *PaymentCycleVoucherEntitlement) {
	p.VoucherEntitlement = entitlement
	if entitlement == nil {
		p.TotalVouchers = 0
		p.TotalEntitlementAmountInPence = 0
		return
	}
	p.TotalVouchers = entitlement.TotalVoucherEntitlement
	p.TotalEntitlementAmountInPence = entitlement.TotalVoucherValueInPence
}

// HasEnded reports whether the cycle's last day is before the given day.
func (p *PaymentCycle) HasEnded(at time.Time) bool {
	y, m, d := at.UTC().Date()
	return p.CycleEndDate.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
