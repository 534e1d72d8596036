package client

import (
	"context"
	"net/url"
	"time"
)

type depositRequest struct {
	AmountInPence int    `json:"amountInPence"`
	Reference     string `json:"reference"`
}

type depositResponse struct {
	ReferenceID string `json:"referenceId"`
}

// CardClient moves funds onto claimants' prepaid cards.
type CardClient struct {
	jsonClient
}

func NewCardClient(baseURI string, timeout time.Duration) *CardClient {
	return &CardClient{jsonClient: newJSONClient("card-service", baseURI, timeout)}
}

// DepositFunds credits the card and returns the provider's reference for the transfer. The
// reference passed in is echoed back by the provider so a retried deposit is recognisable.
func (c *CardClient) DepositFunds(ctx context.Context, cardAccountID string, amountInPence int, reference string) (string, error) {
	var resp depositResponse
	path := "/v1/cards/" + url.PathEscape(cardAccountID) + "/deposit"
	if err := c.post(ctx, path, depositRequest{AmountInPence: amountInPence, Reference: reference}, &resp); err != nil {
		return "", err
	}
	return resp.ReferenceID, nil
}
