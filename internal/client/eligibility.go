package client

import (
	"context"
	"fmt"
	"time"

	"github.com/segyhp/claimant-engine/internal/domain"
)

const (
	eligibilityEndpoint = "/v1/eligibility"
	dateLayout          = "2006-01-02"
)

type personRequest struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Nino                 string `json:"nino"`
	DateOfBirth          string `json:"dateOfBirth"`
	ExpectedDeliveryDate string `json:"expectedDeliveryDate,omitempty"`
	EmailAddress         string `json:"emailAddress,omitempty"`
	PhoneNumber          string `json:"phoneNumber,omitempty"`
}

type eligibilityResponse struct {
	IdentityStatus          domain.IdentityOutcome                    `json:"identityStatus"`
	EligibilityStatus       domain.EligibilityStatus                  `json:"eligibilityStatus"`
	QualifyingBenefits      domain.QualifyingBenefitEligibilityStatus `json:"qualifyingBenefits"`
	PregnantChildDobMatch   bool                                      `json:"pregnantChildDobMatch"`
	HouseholdIdentifier     string                                    `json:"householdIdentifier"`
	HmrcHouseholdIdentifier string                                    `json:"hmrcHouseholdIdentifier"`
	DobOfChildrenUnder4     []string                                  `json:"dobOfChildrenUnder4"`
}

// EligibilityClient checks a claimant's identity and eligibility with the eligibility service.
type EligibilityClient struct {
	jsonClient
}

func NewEligibilityClient(baseURI string, timeout time.Duration) *EligibilityClient {
	return &EligibilityClient{jsonClient: newJSONClient("eligibility-service", baseURI, timeout)}
}

func (c *EligibilityClient) CheckIdentityAndEligibility(ctx context.Context, claimant domain.Claimant) (domain.IdentityAndEligibilityResponse, error) {
	req := personRequest{
		FirstName:    claimant.FirstName,
		LastName:     claimant.LastName,
		Nino:         claimant.Nino,
		DateOfBirth:  claimant.DateOfBirth.Format(dateLayout),
		EmailAddress: claimant.EmailAddress,
		PhoneNumber:  claimant.PhoneNumber,
	}
	if claimant.ExpectedDeliveryDate.Valid {
		req.ExpectedDeliveryDate = claimant.ExpectedDeliveryDate.Time.Format(dateLayout)
	}

	var resp eligibilityResponse
	if err := c.post(ctx, eligibilityEndpoint, req, &resp); err != nil {
		return domain.IdentityAndEligibilityResponse{}, err
	}

	dobs := make([]time.Time, 0, len(resp.DobOfChildrenUnder4))
	for _, raw := range resp.DobOfChildrenUnder4 {
		dob, err := time.Parse(dateLayout, raw)
		if err != nil {
			return domain.IdentityAndEligibilityResponse{}, fmt.Errorf("parsing child date of birth %q: %w", raw, err)
		}
		dobs = append(dobs, dob)
	}

	identity := resp.IdentityStatus
	if identity == "" {
		identity = domain.IdentityOutcomeNotSet
	}
	qualifying := resp.QualifyingBenefits
	if qualifying == "" {
		qualifying = domain.QualifyingBenefitNotSet
	}

	return domain.IdentityAndEligibilityResponse{
		IdentityStatus:                     identity,
		EligibilityStatus:                  resp.EligibilityStatus,
		QualifyingBenefitEligibilityStatus: qualifying,
		PregnantChildDobMatch:              resp.PregnantChildDobMatch,
		DwpHouseholdIdentifier:             resp.HouseholdIdentifier,
		HmrcHouseholdIdentifier:            resp.HmrcHouseholdIdentifier,
		DobOfChildrenUnder4:                dobs,
	}, nil
}
