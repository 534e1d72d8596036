package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

const maxErrorBodyLength = 512

// StatusError is a non-2xx reply from a downstream service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsRejected reports whether the downstream service refused the request itself (4xx), as
// opposed to being unreachable or failing.
func IsRejected(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
}

// jsonClient posts JSON bodies to one downstream service.
type jsonClient struct {
	service string
	baseURI string
	timeout time.Duration
	http    *fasthttp.Client
}

func newJSONClient(service, baseURI string, timeout time.Duration) jsonClient {
	return jsonClient{
		service: service,
		baseURI: strings.TrimRight(baseURI, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "claimant-engine",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// post sends body as JSON to path and decodes a JSON reply into out when out is not nil.
func (c jsonClient) post(ctx context.Context, path string, body any, out any) error {
	if err := ctx.Err(); err != nil {
		return customError.WrapDownstreamError(c.service, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", c.service, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURI + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(payload)

	if err := c.http.DoTimeout(req, resp, c.timeoutFor(ctx)); err != nil {
		return customError.WrapDownstreamError(c.service, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		respBody := string(resp.Body())
		if len(respBody) > maxErrorBodyLength {
			respBody = respBody[:maxErrorBodyLength]
		}
		return customError.WrapDownstreamError(c.service, &StatusError{StatusCode: status, Body: respBody})
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return customError.WrapDownstreamError(c.service, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c jsonClient) timeoutFor(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return c.timeout
	}
	if remaining := time.Until(deadline); remaining < c.timeout {
		return remaining
	}
	return c.timeout
}
