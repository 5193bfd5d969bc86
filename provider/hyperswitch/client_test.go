package hyperswitch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendsAPIKey(t *testing.T) {
	vendor, server := newFakeVendor(t)
	vendor.put("pay_1", map[string]any{"status": "requires_capture"})

	client := NewClient(server.URL, "snd_key", time.Second)
	intent, err := client.RetrievePayment(context.Background(), "pay_1")
	require.NoError(t, err)

	assert.Equal(t, "pay_1", intent.PaymentID)
	assert.Equal(t, "pay_1", intent.ID, "id mirrors payment_id")
	assert.Equal(t, "snd_key", vendor.last(http.MethodGet, "/payments/pay_1").APIKey)
}

func TestClient_PreservesUnknownFields(t *testing.T) {
	vendor, server := newFakeVendor(t)
	vendor.put("pay_1", map[string]any{"status": "succeeded", "connector": "stripe"})

	client := NewClient(server.URL, "snd_key", time.Second)
	intent, err := client.RetrievePayment(context.Background(), "pay_1")
	require.NoError(t, err)

	assert.JSONEq(t, `"stripe"`, string(intent.Extra["connector"]))
}

func TestClient_APIError(t *testing.T) {
	_, server := newFakeVendor(t)

	client := NewClient(server.URL, "snd_key", time.Second)
	_, err := client.RetrievePayment(context.Background(), "pay_missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "HE_02", apiErr.Code)
	assert.Equal(t, "Payment does not exist in our records", apiErr.Message)
	assert.True(t, IsAPIError(err))
}

func TestClient_APIError_PlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "snd_key", time.Second)
	_, err := client.CapturePayment(context.Background(), "pay_1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "snd_key", time.Second)
	_, err := client.RetrievePayment(context.Background(), "pay_1")
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestClient_CreateCustomer(t *testing.T) {
	vendor, server := newFakeVendor(t)

	client := NewClient(server.URL, "snd_key", time.Second)
	customer, err := client.CreateCustomer(context.Background(), CustomerRequest{Email: "jane@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "hs_cus_new", customer.CustomerID)
	assert.Equal(t, "jane@example.com", vendor.last(http.MethodPost, "/customers").Body["email"])
}

func TestClient_CreateRefund(t *testing.T) {
	vendor, server := newFakeVendor(t)

	client := NewClient(server.URL, "snd_key", time.Second)
	refund, err := client.CreateRefund(context.Background(), RefundRequest{PaymentID: "pay_1", Amount: 500})
	require.NoError(t, err)

	assert.Equal(t, "ref_1", refund.RefundID)
	body := vendor.last(http.MethodPost, "/refunds").Body
	assert.Equal(t, "pay_1", body["payment_id"])
	assert.Equal(t, float64(500), body["amount"])
}
