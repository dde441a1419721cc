// Package http wraps the outbound HTTP client used for payment-gateway
// calls, bounding every request with a shared timeout.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is a timeout-bounded HTTP client. The timeout covers the whole
// exchange, including reading the response body.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// DoWithContext sends the request bound to ctx, so callers can cancel a
// gateway call independently of the client timeout.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
