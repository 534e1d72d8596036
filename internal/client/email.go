package client

import (
	"context"
	"time"

	"github.com/segyhp/claimant-engine/internal/domain"
)

// EmailRequest asks the email service to send one templated email.
type EmailRequest struct {
	To              string            `json:"to"`
	EmailType       domain.EmailType  `json:"emailType"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
}

type EmailClient struct {
	jsonClient
}

func NewEmailClient(baseURI string, timeout time.Duration) *EmailClient {
	return &EmailClient{jsonClient: newJSONClient("email-service", baseURI, timeout)}
}

func (c *EmailClient) SendEmail(ctx context.Context, req EmailRequest) error {
	return c.post(ctx, "/v1/emails", req, nil)
}
