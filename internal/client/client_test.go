package client

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	recorded := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.method = r.Method
		recorded.path = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &recorded.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, recorded
}

func TestEligibilityClient_CheckIdentityAndEligibility(t *testing.T) {
	server, recorded := newServer(t, http.StatusOK, `{
		"eligibilityStatus": "ELIGIBLE",
		"identityStatus": "MATCHED",
		"qualifyingBenefits": "CONFIRMED",
		"householdIdentifier": "dwp-1",
		"dobOfChildrenUnder4": ["2023-01-15", "2021-07-01"]
	}`)
	client := NewEligibilityClient(server.URL+"/", time.Second)

	claimant := domain.Claimant{
		FirstName:            "Lisa",
		LastName:             "Simpson",
		Nino:                 "QQ123456C",
		DateOfBirth:          time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC),
		ExpectedDeliveryDate: sql.NullTime{Time: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Valid: true},
	}

	resp, err := client.CheckIdentityAndEligibility(context.Background(), claimant)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, recorded.method)
	assert.Equal(t, "/v1/eligibility", recorded.path)
	assert.Equal(t, "QQ123456C", recorded.body["nino"])
	assert.Equal(t, "1990-03-01", recorded.body["dateOfBirth"])
	assert.Equal(t, "2024-09-01", recorded.body["expectedDeliveryDate"])

	assert.Equal(t, domain.EligibilityStatusEligible, resp.EligibilityStatus)
	assert.Equal(t, domain.IdentityOutcomeMatched, resp.IdentityStatus)
	assert.Equal(t, domain.QualifyingBenefitConfirmed, resp.QualifyingBenefitEligibilityStatus)
	assert.Equal(t, "dwp-1", resp.DwpHouseholdIdentifier)
	assert.Equal(t, []time.Time{
		time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
	}, resp.DobOfChildrenUnder4)
}

func TestEligibilityClient_DefaultsMissingOutcomes(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, `{"eligibilityStatus": "NO_MATCH"}`)
	client := NewEligibilityClient(server.URL, time.Second)

	resp, err := client.CheckIdentityAndEligibility(context.Background(), domain.Claimant{Nino: "QQ123456C"})

	require.NoError(t, err)
	assert.Equal(t, domain.IdentityOutcomeNotSet, resp.IdentityStatus)
	assert.Equal(t, domain.QualifyingBenefitNotSet, resp.QualifyingBenefitEligibilityStatus)
	assert.Empty(t, resp.DobOfChildrenUnder4)
}

func TestCardClient_DepositFunds(t *testing.T) {
	server, recorded := newServer(t, http.StatusOK, `{"referenceId": "ref-99"}`)
	client := NewCardClient(server.URL, time.Second)

	reference, err := client.DepositFunds(context.Background(), "card-123", 1240, "cycle-1")

	require.NoError(t, err)
	assert.Equal(t, "ref-99", reference)
	assert.Equal(t, "/v1/cards/card-123/deposit", recorded.path)
	assert.EqualValues(t, 1240, recorded.body["amountInPence"])
	assert.Equal(t, "cycle-1", recorded.body["reference"])
}

func TestCardClient_RejectionAndOutage(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantRejected bool
	}{
		{name: "card rejected", status: http.StatusUnprocessableEntity, wantRejected: true},
		{name: "provider down", status: http.StatusBadGateway, wantRejected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newServer(t, tt.status, `{"message":"nope"}`)
			client := NewCardClient(server.URL, time.Second)

			_, err := client.DepositFunds(context.Background(), "card-123", 100, "ref")

			require.Error(t, err)
			var businessErr *customError.BusinessError
			require.ErrorAs(t, err, &businessErr)
			assert.Equal(t, customError.ErrCodeDownstreamError, businessErr.Code)
			assert.Equal(t, tt.wantRejected, IsRejected(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestReportingAndEmailClients(t *testing.T) {
	reportServer, reportRequest := newServer(t, http.StatusAccepted, ``)
	emailServer, emailRequest := newServer(t, http.StatusAccepted, ``)
	claimID := uuid.New()

	err := NewReportingClient(reportServer.URL, time.Second).ReportClaim(context.Background(), domain.ReportClaimMessagePayload{
		ClaimID:     claimID,
		ClaimAction: domain.ClaimActionUpdatedFromActiveToExpired,
		Timestamp:   time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/reports/claims", reportRequest.path)
	assert.Equal(t, claimID.String(), reportRequest.body["claimId"])
	assert.Equal(t, string(domain.ClaimActionUpdatedFromActiveToExpired), reportRequest.body["claimAction"])

	err = NewEmailClient(emailServer.URL, time.Second).SendEmail(context.Background(), EmailRequest{
		To:              "lisa@example.com",
		EmailType:       domain.EmailTypePaymentFailed,
		Personalisation: map[string]string{"first_name": "Lisa"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/emails", emailRequest.path)
	assert.Equal(t, "lisa@example.com", emailRequest.body["to"])
	assert.Equal(t, "PAYMENT_FAILED", emailRequest.body["emailType"])
}

func TestClient_CancelledContext(t *testing.T) {
	server, recorded := newServer(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewEmailClient(server.URL, time.Second).SendEmail(ctx, EmailRequest{To: "x@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recorded.path)
}
