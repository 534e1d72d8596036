package entitlement

import (
	"time"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// ChildDateOfBirthCalculator answers age questions about a claimant's children.
type ChildDateOfBirthCalculator struct{}

func NewChildDateOfBirthCalculator() *ChildDateOfBirthCalculator {
	return &ChildDateOfBirthCalculator{}
}

// HadChildrenUnderFourAtStartOfPaymentCycle reports whether any child on the cycle was under four on its start date.
func (c *ChildDateOfBirthCalculator) HadChildrenUnderFourAtStartOfPaymentCycle(cycle *domain.PaymentCycle) bool {
	if cycle == nil {
		return false
	}
	return c.HasChildrenUnderFourAtGivenDate(cycle.ChildrenDob, cycle.CycleStartDate)
}

// HasChildrenUnderFourAtGivenDate reports whether any child was born after at minus four years.
func (c *ChildDateOfBirthCalculator) HasChildrenUnderFourAtGivenDate(childrenDob []time.Time, at time.Time) bool {
	fourYearsAgo := utils.MinusYears(at, 4)
	for _, dob := range childrenDob {
		if utils.StartOfDay(dob).After(fourYearsAgo) {
			return true
		}
	}
	return false
}

// NumberOfChildrenUnderOne counts children born after at minus one year and not after at.
func NumberOfChildrenUnderOne(childrenDob []time.Time, at time.Time) int {
	return numberOfChildrenUnderAgeInYears(childrenDob, at, 1)
}

// NumberOfChildrenUnderFour counts children born after at minus four years and not after at.
func NumberOfChildrenUnderFour(childrenDob []time.Time, at time.Time) int {
	return numberOfChildrenUnderAgeInYears(childrenDob, at, 4)
}

func numberOfChildrenUnderAgeInYears(childrenDob []time.Time, at time.Time, years int) int {
	at = utils.StartOfDay(at)
	pastDate := utils.MinusYears(at, years)
	count := 0
	for _, dob := range childrenDob {
		dob = utils.StartOfDay(dob)
		if dob.After(pastDate) && !dob.After(at) {
			count++
		}
	}
	return count
}
