package domain

import (
	"time"

	"github.com/google/uuid"
)

type IdentityOutcome string

const (
	IdentityOutcomeMatched    IdentityOutcome = "MATCHED"
	IdentityOutcomeNotMatched IdentityOutcome = "NOT_MATCHED"
	IdentityOutcomeNotSet     IdentityOutcome = "NOT_SET"
)

// IdentityAndEligibilityResponse is the raw verdict returned by the eligibility service,
// forwarded untouched in claim reports.
type IdentityAndEligibilityResponse struct {
	IdentityStatus                     IdentityOutcome                    `json:"identityStatus"`
	EligibilityStatus                  EligibilityStatus                  `json:"eligibilityStatus"`
	QualifyingBenefitEligibilityStatus QualifyingBenefitEligibilityStatus `json:"qualifyingBenefits"`
	PregnantChildDobMatch              bool                               `json:"pregnantChildDobMatch"`
	DwpHouseholdIdentifier             string                             `json:"householdIdentifier"`
	HmrcHouseholdIdentifier            string                             `json:"hmrcHouseholdIdentifier,omitempty"`
	DobOfChildrenUnder4                []time.Time                        `json:"dobOfChildrenUnder4"`
}

// EligibilityAndEntitlementDecision is the combined eligibility and entitlement verdict for
// one claimant and cycle. Treat it as immutable once built.
type EligibilityAndEntitlementDecision struct {
	EligibilityStatus                  EligibilityStatus
	QualifyingBenefitEligibilityStatus QualifyingBenefitEligibilityStatus
	DateOfBirthOfChildren              []time.Time
	VoucherEntitlement                 *PaymentCycleVoucherEntitlement
	IdentityAndEligibilityResponse     IdentityAndEligibilityResponse
	ExistingClaimID                    uuid.NullUUID
}

// IsEligible reports whether the decision entitles the claimant to vouchers.
func (d EligibilityAndEntitlementDecision) IsEligible() bool {
	return d.EligibilityStatus == EligibilityStatusEligible
}

// HasChildren reports whether the eligibility feed returned at least one child.
func (d EligibilityAndEntitlementDecision) HasChildren() bool {
	return len(d.DateOfBirthOfChildren) > 0
}

// ChildrenDob returns a copy of the children's dates of birth.
func (d EligibilityAndEntitlementDecision) ChildrenDob() []time.Time {
	if d.DateOfBirthOfChildren == nil {
		return nil
	}
	return append([]time.Time(nil), d.DateOfBirthOfChildren...)
}
