package entitlement

import (
	"database/sql"
	"time"

	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// CycleEntitlementCalculator calculates the entitlement for a whole payment cycle. The cycle is
// split into calculation periods, e.g. a 28 day cycle with 4 periods is calculated four times,
// one week apart, and the results summed.
type CycleEntitlementCalculator struct {
	numberOfCalculationPeriods int
	calculationDurationInDays  int
	weeksBeforeDueDate         int
	weeksAfterDueDate          int
	calculator                 *EntitlementCalculator
	backdate                   BackdatePolicy
	clock                      utils.Clock
}

func NewCycleEntitlementCalculator(cfg config.EntitlementConfig, calculator *EntitlementCalculator, backdate BackdatePolicy, clock utils.Clock) *CycleEntitlementCalculator {
	return &CycleEntitlementCalculator{
		numberOfCalculationPeriods: cfg.NumberOfCalculationPeriods,
		calculationDurationInDays:  cfg.EntitlementCalculationDurationInDays,
		weeksBeforeDueDate:         cfg.WeeksBeforeDueDate,
		weeksAfterDueDate:          cfg.WeeksAfterDueDate,
		calculator:                 calculator,
		backdate:                   backdate,
		clock:                      clock,
	}
}

// CalculateEntitlement returns the cycle entitlement. When the previous cycle paid pregnancy vouchers
// and a newly reported child was born around the due date, the pregnancy is treated as over: the
// due date is ignored and missed vouchers are backdated.
func (c *CycleEntitlementCalculator) CalculateEntitlement(dueDate sql.NullTime, childrenDob []time.Time, previous *domain.PaymentCycleVoucherEntitlement) (*domain.PaymentCycleVoucherEntitlement, error) {
	newChildren := c.newChildrenMatchedToDueDate(dueDate, childrenDob, previous)
	if len(newChildren) == 0 {
		return domain.NewPaymentCycleVoucherEntitlement(c.cycleEntitlements(dueDate, childrenDob), 0)
	}

	entitlements := c.cycleEntitlements(sql.NullTime{}, childrenDob)
	backdated := c.backdate.BackdatedVouchers(dueDate, newChildren)
	return domain.NewPaymentCycleVoucherEntitlement(entitlements, backdated)
}

// EntitlementDates returns the calculation period dates of a cycle starting today.
func (c *CycleEntitlementCalculator) EntitlementDates() []time.Time {
	return utils.CalculationDates(c.clock(), c.numberOfCalculationPeriods, c.calculationDurationInDays)
}

func (c *CycleEntitlementCalculator) cycleEntitlements(dueDate sql.NullTime, childrenDob []time.Time) []domain.VoucherEntitlement {
	dates := c.EntitlementDates()
	entitlements := make([]domain.VoucherEntitlement, 0, len(dates))
	for _, date := range dates {
		entitlements = append(entitlements, c.calculator.CalculateVoucherEntitlement(dueDate, childrenDob, date))
	}
	return entitlements
}

func (c *CycleEntitlementCalculator) newChildrenMatchedToDueDate(dueDate sql.NullTime, childrenDob []time.Time, previous *domain.PaymentCycleVoucherEntitlement) []time.Time {
	if previous == nil || previous.VouchersForPregnancy == 0 || !dueDate.Valid {
		return nil
	}

	due := utils.StartOfDay(dueDate.Time)
	from := due.AddDate(0, 0, -7*c.weeksBeforeDueDate)
	to := due.AddDate(0, 0, 7*c.weeksAfterDueDate)

	var matched []time.Time
	for _, dob := range childrenDob {
		if utils.IsWithinRange(dob, from, to) {
			matched = append(matched, dob)
		}
	}
	return matched
}
