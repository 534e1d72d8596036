package client

import (
	"context"
	"time"

	"github.com/segyhp/claimant-engine/internal/domain"
)

// ReportingClient forwards claim events to the reporting service.
type ReportingClient struct {
	jsonClient
}

func NewReportingClient(baseURI string, timeout time.Duration) *ReportingClient {
	return &ReportingClient{jsonClient: newJSONClient("reporting-service", baseURI, timeout)}
}

func (c *ReportingClient) ReportClaim(ctx context.Context, report domain.ReportClaimMessagePayload) error {
	return c.post(ctx, "/v1/reports/claims", report, nil)
}
