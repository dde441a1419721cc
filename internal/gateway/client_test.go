package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/wizard"
)

const testIframeBase = "https://pay.pesapal.com/iframe/PesapalIframe3/Index"

func paymentRecord() *wizard.ApplicationRecord {
	rec := wizard.NewRecord()
	rec.FirstName = "Jane"
	rec.LastName = "Doe"
	rec.Email = "jane@x.com"
	rec.PhoneNumber = "0712345678"
	rec.ProgrammeName = "Bachelor of Science in Computer Science"
	return rec
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(serverURL, testIframeBase, 5*time.Second, logger.NewTestLogger(t))
}

func TestGetToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/get-token", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	token, err := newTestClient(t, srv.URL).GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestGetToken_ServerErrorIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetToken(context.Background())
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeTokenFetchFailed, stdErr.Code)
}

func TestGetToken_MissingTokenFieldIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetToken(context.Background())
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeMalformedGatewayResponse, stdErr.Code)
}

func TestBuildOrder_FixedAmountAndDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rec := paymentRecord()
	rec.MiddleName = "Wanjiru"

	order := BuildOrder(rec, "https://apply.example.com", now)

	assert.Equal(t, "zeroday_1773480413000", order.ID)
	assert.Equal(t, "KES", order.Currency)
	assert.Equal(t, 2050, order.Amount)
	assert.Equal(t, "Application Fee", order.Description)
	assert.Equal(t, "ZERODAY", order.Branch)
	assert.Equal(t, "https://apply.example.com/api/ipn", order.CallbackURL)

	addr := order.BillingAddress
	assert.Equal(t, "jane@x.com", addr.EmailAddress)
	assert.Equal(t, "0712345678", addr.PhoneNumber)
	assert.Equal(t, "KE", addr.CountryCode)
	assert.Equal(t, "Jane", addr.FirstName)
	assert.Equal(t, "Wanjiru", addr.MiddleName)
	assert.Equal(t, "Doe", addr.LastName)
	assert.Equal(t, "Nairobi", addr.Line1)
	assert.Equal(t, "Nairobi", addr.City)
	assert.Empty(t, addr.Line2)
	assert.Empty(t, addr.State)
	assert.Empty(t, addr.PostalCode)
	assert.Empty(t, addr.ZipCode)
}

func TestBuildOrder_AmountIndependentOfSelection(t *testing.T) {
	now := time.Now()
	for _, programme := range []string{
		"Certificate in Community Development",
		"Bachelor of Science in Nursing",
		"PhD in Clinical Psychology",
	} {
		rec := paymentRecord()
		rec.ProgrammeName = programme
		order := BuildOrder(rec, "https://apply.example.com", now)
		assert.Equal(t, 2050, order.Amount)
		assert.Equal(t, "KES", order.Currency)
	}
}

func TestValidateOrder(t *testing.T) {
	order := BuildOrder(paymentRecord(), "https://apply.example.com", time.Now())
	assert.NoError(t, ValidateOrder(order))

	tampered := order
	tampered.Amount = 1
	err := ValidateOrder(tampered)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeOrderPayloadInvalid, stdErr.Code)

	tampered = order
	tampered.Currency = "USD"
	assert.Error(t, ValidateOrder(tampered))

	tampered = order
	tampered.ID = "order-1"
	assert.Error(t, ValidateOrder(tampered))
}

func TestSubmitOrder_RequiresTrackingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}))
	defer srv.Close()

	order := BuildOrder(paymentRecord(), "https://apply.example.com", time.Now())
	_, err := newTestClient(t, srv.URL).SubmitOrder(context.Background(), "tok-123", order)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeMalformedGatewayResponse, stdErr.Code)
}

func TestInitiatePayment_FullProtocol(t *testing.T) {
	var tokenCalls, orderCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-token":
			tokenCalls++
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
		case "/api/submit-order":
			orderCalls++
			// The order is only ever submitted after the token was issued.
			assert.Equal(t, 1, tokenCalls)

			var body struct {
				Token     string `json:"token"`
				OrderData Order  `json:"orderData"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "tok-123", body.Token)
			assert.Equal(t, 2050, body.OrderData.Amount)
			assert.Equal(t, "https://apply.example.com/api/ipn", body.OrderData.CallbackURL)

			json.NewEncoder(w).Encode(map[string]string{"order_tracking_id": "trk-42"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	url, err := newTestClient(t, srv.URL).InitiatePayment(
		context.Background(), paymentRecord(), "https://apply.example.com")
	require.NoError(t, err)

	assert.Equal(t, testIframeBase+"?OrderTrackingId=trk-42", url)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 1, orderCalls)
}

func TestInitiatePayment_TokenFailureSkipsOrder(t *testing.T) {
	var orderCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-token":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/submit-order":
			orderCalls++
		}
	}))
	defer srv.Close()

	url, err := newTestClient(t, srv.URL).InitiatePayment(
		context.Background(), paymentRecord(), "https://apply.example.com")
	assert.Error(t, err)
	assert.Empty(t, url)
	assert.Zero(t, orderCalls)
}

func TestInitiatePayment_OrderFailureSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-token":
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
		case "/api/submit-order":
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).InitiatePayment(
		context.Background(), paymentRecord(), "https://apply.example.com")
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeOrderSubmitFailed, stdErr.Code)
}
