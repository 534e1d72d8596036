package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimStatusNew           ClaimStatus = "NEW"
	ClaimStatusPending       ClaimStatus = "PENDING"
	ClaimStatusActive        ClaimStatus = "ACTIVE"
	ClaimStatusPendingExpiry ClaimStatus = "PENDING_EXPIRY"
	ClaimStatusExpired       ClaimStatus = "EXPIRED"
	ClaimStatusRejected      ClaimStatus = "REJECTED"
	ClaimStatusError         ClaimStatus = "ERROR"
)

// IsTerminal reports whether no further cycle evaluation may change the status.
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusExpired || s == ClaimStatusRejected || s == ClaimStatusError
}

// IsLive reports whether the claim counts as the identity's one live claim.
func (s ClaimStatus) IsLive() bool {
	switch s {
	case ClaimStatusNew, ClaimStatusPending, ClaimStatusActive, ClaimStatusPendingExpiry:
		return true
	}
	return false
}

// CardStatus is tracked alongside the claim status but committed separately.
type CardStatus string

const (
	CardStatusPending                  CardStatus = "PENDING"
	CardStatusActive                   CardStatus = "ACTIVE"
	CardStatusPendingCancellation      CardStatus = "PENDING_CANCELLATION"
	CardStatusScheduledForCancellation CardStatus = "SCHEDULED_FOR_CANCELLATION"
	CardStatusCancelled                CardStatus = "CANCELLED"
)

// EligibilityStatus is the verdict of the external eligibility check.
type EligibilityStatus string

const (
	EligibilityStatusEligible   EligibilityStatus = "ELIGIBLE"
	EligibilityStatusIneligible EligibilityStatus = "INELIGIBLE"
	EligibilityStatusPending    EligibilityStatus = "PENDING"
	EligibilityStatusNoMatch    EligibilityStatus = "NO_MATCH"
	EligibilityStatusError      EligibilityStatus = "ERROR"
	EligibilityStatusDuplicate  EligibilityStatus = "DUPLICATE"
)

// QualifyingBenefitEligibilityStatus says whether the underlying welfare benefit is confirmed.
type QualifyingBenefitEligibilityStatus string

const (
	QualifyingBenefitConfirmed    QualifyingBenefitEligibilityStatus = "CONFIRMED"
	QualifyingBenefitNotConfirmed QualifyingBenefitEligibilityStatus = "NOT_CONFIRMED"
	QualifyingBenefitNotSet       QualifyingBenefitEligibilityStatus = "NOT_SET"
)

// Claimant is the person a claim is made for.
type Claimant struct {
	ID                   uuid.UUID    `json:"id" db:"id"`
	FirstName            string       `json:"first_name" db:"first_name"`
	LastName             string       `json:"last_name" db:"last_name"`
	Nino                 string       `json:"nino" db:"nino"`
	DateOfBirth          time.Time    `json:"date_of_birth" db:"date_of_birth"`
	ExpectedDeliveryDate sql.NullTime `json:"expected_delivery_date" db:"expected_delivery_date"`
	EmailAddress         string       `json:"email_address" db:"email_address"`
	PhoneNumber          string       `json:"phone_number" db:"phone_number"`
}

// Claim represents one person's benefit claim. Payment cycles reference the claim by ID;
// the claim itself holds no cycles.
type Claim struct {
	ID                         uuid.UUID         `json:"id" db:"id"`
	Claimant                   Claimant          `json:"claimant" db:"claimant"`
	ClaimStatus                ClaimStatus       `json:"claim_status" db:"claim_status"`
	ClaimStatusTimestamp       time.Time         `json:"claim_status_timestamp" db:"claim_status_timestamp"`
	EligibilityStatus          EligibilityStatus `json:"eligibility_status" db:"eligibility_status"`
	EligibilityStatusTimestamp time.Time         `json:"eligibility_status_timestamp" db:"eligibility_status_timestamp"`
	DwpHouseholdIdentifier     string            `json:"dwp_household_identifier" db:"dwp_household_identifier"`
	HmrcHouseholdIdentifier    string            `json:"hmrc_household_identifier" db:"hmrc_household_identifier"`
	CardAccountID              string            `json:"card_account_id" db:"card_account_id"`
	CardStatus                 CardStatus        `json:"card_status" db:"card_status"`
	CardStatusTimestamp        time.Time         `json:"card_status_timestamp" db:"card_status_timestamp"`
	CreatedAt                  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time         `json:"updated_at" db:"updated_at"`
}

// UpdateClaimStatus sets the claim status and stamps the change.
func (c *Claim) UpdateClaimStatus(status ClaimStatus, at time.Time) {
	c.ClaimStatus = status
	c.ClaimStatusTimestamp = at
}

// UpdateCardStatus sets the card status and stamps the change.
func (c *Claim) UpdateCardStatus(status CardStatus, at time.Time) {
	c.CardStatus = status
	c.CardStatusTimestamp = at
}
