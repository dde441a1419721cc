// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"daystar-admissions/internal/common/errors"
	commonhttp "daystar-admissions/internal/common/http"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/common/metrics"
	"daystar-admissions/internal/wizard"
)

const (
	tokenPath       = "/api/get-token"
	submitOrderPath = "/api/submit-order"
)

// Client speaks the hosted-payment token protocol: fetch a session token,
// submit an order bearing it, and hand back the hosted payment page URL.
// It implements wizard.PaymentInitiator.
type Client struct {
	baseURL       string
	iframeBaseURL string
	httpClient    *commonhttp.Client
	logger        logger.Logger
	now           func() time.Time
}

func NewClient(baseURL, iframeBaseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		iframeBaseURL: iframeBaseURL,
		httpClient:    commonhttp.NewClient(timeout),
		logger:        log.WithFields(map[string]interface{}{"component": "gateway"}),
		now:           time.Now,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type orderRequest struct {
	Token     string `json:"token"`
	OrderData Order  `json:"orderData"`
}

type orderResponse struct {
	OrderTrackingID string `json:"order_tracking_id"`
}

// GetToken requests a payment session token. A non-2xx status or a body
// without a token field is a hard failure; payment does not proceed.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	start := time.Now()

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", errors.NewTokenFetchFailedError(err.Error())
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		metrics.PaymentRequests.WithLabelValues("token", "failure").Inc()
		return "", errors.NewTokenFetchFailedError(err.Error())
	}
	defer resp.Body.Close()
	metrics.PaymentRequestDuration.WithLabelValues("token").Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.PaymentRequests.WithLabelValues("token", "failure").Inc()
		return "", errors.NewTokenFetchFailedError(fmt.Sprintf("status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PaymentRequests.WithLabelValues("token", "failure").Inc()
		return "", errors.NewTokenFetchFailedError(err.Error())
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		metrics.PaymentRequests.WithLabelValues("token", "failure").Inc()
		return "", errors.NewMalformedGatewayResponseError(err.Error())
	}
	if tr.Token == "" {
		metrics.PaymentRequests.WithLabelValues("token", "failure").Inc()
		return "", errors.NewMalformedGatewayResponseError("token field missing from response")
	}

	metrics.PaymentRequests.WithLabelValues("token", "success").Inc()
	return tr.Token, nil
}

// SubmitOrder posts the order under the given token. The response must carry
// an order_tracking_id.
func (c *Client) SubmitOrder(ctx context.Context, token string, order Order) (string, error) {
	start := time.Now()

	payload, err := json.Marshal(orderRequest{Token: token, OrderData: order})
	if err != nil {
		return "", errors.NewOrderSubmitFailedError(err.Error())
	}

	req, err := stdhttp.NewRequest(stdhttp.MethodPost, c.baseURL+submitOrderPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewOrderSubmitFailedError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		metrics.PaymentRequests.WithLabelValues("order", "failure").Inc()
		return "", errors.NewOrderSubmitFailedError(err.Error())
	}
	defer resp.Body.Close()
	metrics.PaymentRequestDuration.WithLabelValues("order").Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.PaymentRequests.WithLabelValues("order", "failure").Inc()
		return "", errors.NewOrderSubmitFailedError(fmt.Sprintf("status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PaymentRequests.WithLabelValues("order", "failure").Inc()
		return "", errors.NewOrderSubmitFailedError(err.Error())
	}

	var or orderResponse
	if err := json.Unmarshal(body, &or); err != nil {
		metrics.PaymentRequests.WithLabelValues("order", "failure").Inc()
		return "", errors.NewMalformedGatewayResponseError(err.Error())
	}
	if or.OrderTrackingID == "" {
		metrics.PaymentRequests.WithLabelValues("order", "failure").Inc()
		return "", errors.NewMalformedGatewayResponseError("order_tracking_id missing from response")
	}

	metrics.PaymentRequests.WithLabelValues("order", "success").Inc()
	return or.OrderTrackingID, nil
}

// IframeURL builds the hosted payment page URL for a tracking id.
func (c *Client) IframeURL(trackingID string) string {
	return fmt.Sprintf("%s?OrderTrackingId=%s", c.iframeBaseURL, trackingID)
}

// InitiatePayment runs the full protocol: token, then order, then redirect
// URL. The order is never submitted before a token is held, and the payload
// is schema-checked before it goes on the wire.
func (c *Client) InitiatePayment(ctx context.Context, rec *wizard.ApplicationRecord, origin string) (string, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		c.logger.Error("token fetch failed", map[string]interface{}{"error": err})
		return "", err
	}

	order := BuildOrder(rec, origin, c.now())
	if err := ValidateOrder(order); err != nil {
		c.logger.Error("order payload rejected", map[string]interface{}{"error": err})
		return "", err
	}

	trackingID, err := c.SubmitOrder(ctx, token, order)
	if err != nil {
		c.logger.Error("order submission failed", map[string]interface{}{
			"error":   err,
			"orderId": order.ID,
		})
		return "", err
	}

	c.logger.Info("payment order accepted", map[string]interface{}{
		"orderId":    order.ID,
		"trackingId": trackingID,
	})
	return c.IframeURL(trackingID), nil
}
