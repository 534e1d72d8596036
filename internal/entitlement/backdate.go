package entitlement

import (
	"database/sql"
	"strings"
	"time"

	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// BackdatePolicy decides how many vouchers are owed for periods before a birth was matched
// to the claimant's pregnancy.
type BackdatePolicy interface {
	BackdatedVouchers(dueDate sql.NullTime, matchedDobs []time.Time) int
}

// NewBackdatePolicy returns the policy configured by name.
func NewBackdatePolicy(name string, calculator *EntitlementCalculator, periodDurationInDays int, clock utils.Clock) BackdatePolicy {
	if strings.EqualFold(name, config.BackdatePolicyNone) {
		return NoBackdatePolicy{}
	}
	return NewMissedPeriodsPolicy(calculator, periodDurationInDays, clock)
}

// NoBackdatePolicy never backdates.
type NoBackdatePolicy struct{}

func (NoBackdatePolicy) BackdatedVouchers(sql.NullTime, []time.Time) int {
	return 0
}

// MissedPeriodsPolicy pays, for every calculation period between the earliest matched birth and
// today, the vouchers the new children would have earned minus the pregnancy vouchers already paid.
type MissedPeriodsPolicy struct {
	calculator           *EntitlementCalculator
	periodDurationInDays int
	clock                utils.Clock
}

func NewMissedPeriodsPolicy(calculator *EntitlementCalculator, periodDurationInDays int, clock utils.Clock) *MissedPeriodsPolicy {
	return &MissedPeriodsPolicy{
		calculator:           calculator,
		periodDurationInDays: periodDurationInDays,
		clock:                clock,
	}
}

func (p *MissedPeriodsPolicy) BackdatedVouchers(dueDate sql.NullTime, matchedDobs []time.Time) int {
	if len(matchedDobs) == 0 || p.periodDurationInDays <= 0 {
		return 0
	}

	earliest := utils.StartOfDay(matchedDobs[0])
	for _, dob := range matchedDobs[1:] {
		if dob = utils.StartOfDay(dob); dob.Before(earliest) {
			earliest = dob
		}
	}

	total := 0
	today := utils.StartOfDay(p.clock())
	for date := today.AddDate(0, 0, -p.periodDurationInDays); !date.Before(earliest); date = date.AddDate(0, 0, -p.periodDurationInDays) {
		owed := p.calculator.CalculateVoucherEntitlement(sql.NullTime{}, matchedDobs, date).TotalVoucherEntitlement()
		paid := p.calculator.CalculateVoucherEntitlement(dueDate, nil, date).VouchersForPregnancy
		if owed > paid {
			total += owed - paid
		}
	}
	return total
}
