package domain

import (
	"time"

	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

// VoucherEntitlement is the entitlement for a single calculation period.
type VoucherEntitlement struct {
	EntitlementDate                      time.Time `json:"entitlement_date"`
	VouchersForChildrenUnderOne          int       `json:"vouchers_for_children_under_one"`
	VouchersForChildrenBetweenOneAndFour int       `json:"vouchers_for_children_between_one_and_four"`
	VouchersForPregnancy                 int       `json:"vouchers_for_pregnancy"`
	SingleVoucherValueInPence            int       `json:"single_voucher_value_in_pence"`
}

// TotalVoucherEntitlement is the number of vouchers across all bands for the period.
func (v VoucherEntitlement) TotalVoucherEntitlement() int {
	return v.VouchersForChildrenUnderOne + v.VouchersForChildrenBetweenOneAndFour + v.VouchersForPregnancy
}

// TotalVoucherValueInPence is the value of the period's vouchers.
func (v VoucherEntitlement) TotalVoucherValueInPence() int {
	return v.TotalVoucherEntitlement() * v.SingleVoucherValueInPence
}

// PaymentCycleVoucherEntitlement is the number (and value) of vouchers for a whole payment cycle.
type PaymentCycleVoucherEntitlement struct {
	VouchersForChildrenUnderOne          int                  `json:"vouchers_for_children_under_one"`
	VouchersForChildrenBetweenOneAndFour int                  `json:"vouchers_for_children_between_one_and_four"`
	VouchersForPregnancy                 int                  `json:"vouchers_for_pregnancy"`
	BackdatedVouchers                    int                  `json:"backdated_vouchers"`
	TotalVoucherEntitlement              int                  `json:"total_voucher_entitlement"`
	SingleVoucherValueInPence            int                  `json:"single_voucher_value_in_pence"`
	TotalVoucherValueInPence             int                  `json:"total_voucher_value_in_pence"`
	VoucherEntitlements                  []VoucherEntitlement `json:"voucher_entitlements"`
}

// NewPaymentCycleVoucherEntitlement aggregates per-period entitlements. An empty list is a
// programming error, reported as an invariant violation.
func NewPaymentCycleVoucherEntitlement(entitlements []VoucherEntitlement, backdatedVouchers int) (*PaymentCycleVoucherEntitlement, error) {
	if len(entitlements) == 0 {
		return nil, customError.NewInvariantViolation("list of voucher entitlements must not be empty")
	}
	if backdatedVouchers < 0 {
		return nil, customError.NewInvariantViolation("backdated vouchers must not be negative, got %d", backdatedVouchers)
	}

	result := &PaymentCycleVoucherEntitlement{
		BackdatedVouchers:         backdatedVouchers,
		SingleVoucherValueInPence: entitlements[0].SingleVoucherValueInPence,
		VoucherEntitlements:       append([]VoucherEntitlement(nil), entitlements...),
	}

	total := 0
	for _, e := range entitlements {
		result.VouchersForChildrenUnderOne += e.VouchersForChildrenUnderOne
		result.VouchersForChildrenBetweenOneAndFour += e.VouchersForChildrenBetweenOneAndFour
		result.VouchersForPregnancy += e.VouchersForPregnancy
		total += e.TotalVoucherEntitlement()
	}

	result.TotalVoucherEntitlement = total + backdatedVouchers
	result.TotalVoucherValueInPence = result.TotalVoucherEntitlement * result.SingleVoucherValueInPence
	return result, nil
}
