package entitlement

import (
	"database/sql"
	"time"

	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// EntitlementCalculator works out the vouchers for a single calculation period.
type EntitlementCalculator struct {
	vouchersPerChildUnderOne          int
	vouchersPerChildBetweenOneAndFour int
	vouchersPerPregnancy              int
	voucherValueInPence               int
	pregnancy                         *PregnancyEntitlementCalculator
}

func NewEntitlementCalculator(cfg config.EntitlementConfig, pregnancy *PregnancyEntitlementCalculator) *EntitlementCalculator {
	return &EntitlementCalculator{
		vouchersPerChildUnderOne:          cfg.VouchersPerChildUnderOne,
		vouchersPerChildBetweenOneAndFour: cfg.VouchersPerChildBetweenOneAndFour,
		vouchersPerPregnancy:              cfg.VouchersPerPregnancy,
		voucherValueInPence:               cfg.VoucherValueInPence(),
		pregnancy:                         pregnancy,
	}
}

// CalculateVoucherEntitlement returns the entitlement on entitlementDate for the given due date and children.
func (c *EntitlementCalculator) CalculateVoucherEntitlement(dueDate sql.NullTime, childrenDob []time.Time, entitlementDate time.Time) domain.VoucherEntitlement {
	entitlementDate = utils.StartOfDay(entitlementDate)

	underOne := NumberOfChildrenUnderOne(childrenDob, entitlementDate)
	betweenOneAndFour := NumberOfChildrenUnderFour(childrenDob, entitlementDate) - underOne

	pregnancyVouchers := 0
	if c.pregnancy.IsEntitledToVoucher(dueDate, entitlementDate) {
		pregnancyVouchers = c.vouchersPerPregnancy
	}

	return domain.VoucherEntitlement{
		EntitlementDate:                      entitlementDate,
		VouchersForChildrenUnderOne:          underOne * c.vouchersPerChildUnderOne,
		VouchersForChildrenBetweenOneAndFour: betweenOneAndFour * c.vouchersPerChildBetweenOneAndFour,
		VouchersForPregnancy:                 pregnancyVouchers,
		SingleVoucherValueInPence:            c.voucherValueInPence,
	}
}
