package entitlement

import (
	"database/sql"
	"time"

	"github.com/segyhp/claimant-engine/pkg/utils"
)

// PregnancyEntitlementCalculator decides whether a claimant gets a pregnancy voucher on a date.
// Claimants stay entitled for a grace period after the due date.
type PregnancyEntitlementCalculator struct {
	gracePeriodInDays int
}

func NewPregnancyEntitlementCalculator(gracePeriodInDays int) *PregnancyEntitlementCalculator {
	return &PregnancyEntitlementCalculator{gracePeriodInDays: gracePeriodInDays}
}

// IsEntitledToVoucher is true when a due date is present and due date + grace period is not before at.
func (c *PregnancyEntitlementCalculator) IsEntitledToVoucher(dueDate sql.NullTime, at time.Time) bool {
	if !dueDate.Valid {
		return false
	}
	endOfGracePeriod := utils.StartOfDay(dueDate.Time).AddDate(0, 0, c.gracePeriodInDays)
	return !endOfGracePeriod.Before(utils.StartOfDay(at))
}
