package hyperswitch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomers struct {
	calls []map[string]string
	ids   []string
	err   error
}

func (f *fakeCustomers) UpdateCustomerMetadata(ctx context.Context, customerID string, metadata map[string]string) error {
	f.ids = append(f.ids, customerID)
	f.calls = append(f.calls, metadata)
	return f.err
}

type fakeRefunds struct {
	events []*provider.WebhookEvent
	err    error
}

func (f *fakeRefunds) UpdateRefund(ctx context.Context, event *provider.WebhookEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func TestProcessor_InitiatePayment_SmallestUnitInput(t *testing.T) {
	vendor, server := newFakeVendor(t)
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.InitiatePayment(context.Background(), provider.InitiateInput{
		Amount:       1050,
		CurrencyCode: "usd",
		Customer:     &provider.Customer{ID: "cus_1"},
	})
	require.False(t, result.Failed())

	session, ok := result.Body().(ProcessorSession)
	require.True(t, ok)
	assert.Equal(t, "pay_new", session.SessionData.ID)
	assert.Equal(t, "hs_cus_new", session.UpdateRequests.CustomerMetadata[provider.CustomerMetadataKey])
	assert.Equal(t, float64(1050), vendor.last(http.MethodPost, "/payments").Body["amount"])

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"session_data"`)
	assert.Contains(t, string(raw), `"update_requests"`)
}

func TestProcessor_SucceededIsAuthorized(t *testing.T) {
	vendor, server := newFakeVendor(t)
	vendor.put("pay_1", map[string]any{"status": "succeeded"})
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.GetPaymentStatus(context.Background(), provider.SessionData{PaymentID: "pay_1"})
	assert.Equal(t, provider.StatusResult{Status: provider.StatusAuthorized}, result.Body())
}

func TestProcessor_StatusLookupFailure(t *testing.T) {
	_, server := newFakeVendor(t)
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.GetPaymentStatus(context.Background(), provider.SessionData{PaymentID: "pay_missing"})
	assert.Equal(t, provider.StatusResult{Status: provider.StatusError}, result.Body())
}

func TestProcessor_UpdatePaymentData(t *testing.T) {
	_, server := newFakeVendor(t)
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.UpdatePaymentData(context.Background(), "ps_1", map[string]any{"x": 1})
	require.True(t, result.Failed())
	assert.True(t, errors.Is(result.Err(), provider.ErrNotImplemented))
}

func TestProcessor_RefundPayment(t *testing.T) {
	vendor, server := newFakeVendor(t)
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.RefundPayment(context.Background(), provider.SessionData{PaymentID: "pay_1", Currency: "USD"}, 500)
	require.False(t, result.Failed())
	assert.Equal(t, float64(500), vendor.last(http.MethodPost, "/refunds").Body["amount"])

	result = b.RefundPayment(context.Background(), provider.SessionData{}, 500)
	assert.True(t, result.IsEmpty())
}

func TestProcessor_CapturePayment_Failure(t *testing.T) {
	_, server := newFakeVendor(t)
	b := NewProcessor(newTestProvider(t, server.URL, nil))

	result := b.CapturePayment(context.Background(), provider.SessionData{PaymentID: "pay_missing"})
	require.True(t, result.Failed())
	assert.Equal(t, "Unable to capture payment", result.Err().Message)

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"error":"Unable to capture payment"`)
}

func TestModule_SucceededIsCaptured(t *testing.T) {
	vendor, server := newFakeVendor(t)
	vendor.put("pay_1", map[string]any{"status": "succeeded"})
	m := NewModule(newTestProvider(t, server.URL, nil), nil, nil)

	result := m.AuthorizePayment(context.Background(), provider.SessionData{PaymentID: "pay_1"})
	require.False(t, result.Failed())
	assert.Equal(t, provider.StatusCaptured, result.Body().(*provider.AuthorizeResult).Status)
}

func TestModule_InitiatePayment_PersistsCustomer(t *testing.T) {
	vendor, server := newFakeVendor(t)
	customers := &fakeCustomers{}
	m := NewModule(newTestProvider(t, server.URL, nil), customers, nil)

	result := m.InitiatePayment(context.Background(), provider.InitiateInput{
		Amount:       10,
		CurrencyCode: "eur",
		Email:        "jane@example.com",
		Customer:     &provider.Customer{ID: "cus_1"},
	})
	require.False(t, result.Failed())

	resp := result.Body().(*provider.SessionResponse)
	assert.Equal(t, "pay_new", resp.Data.ID)
	assert.Equal(t, []string{"cus_1"}, customers.ids)
	assert.Equal(t, "hs_cus_new", customers.calls[0][provider.CustomerMetadataKey])
	assert.Equal(t, 1, vendor.calls(http.MethodPost, "/customers"))
	assert.Equal(t, float64(1000), vendor.last(http.MethodPost, "/payments").Body["amount"])
}

func TestModule_InitiatePayment_CustomerUpdateFails(t *testing.T) {
	vendor, server := newFakeVendor(t)
	customers := &fakeCustomers{err: errors.New("db down")}
	m := NewModule(newTestProvider(t, server.URL, nil), customers, nil)

	result := m.InitiatePayment(context.Background(), provider.InitiateInput{
		Amount:       10,
		CurrencyCode: "eur",
		Customer:     &provider.Customer{ID: "cus_1"},
	})
	require.True(t, result.Failed())
	assert.Equal(t, "Unable to initiate payment, error at customer create", result.Err().Message)
	assert.Equal(t, 0, vendor.calls(http.MethodPost, "/payments"))
}

func TestModule_UpdatePayment_Reinitiates(t *testing.T) {
	vendor, server := newFakeVendor(t)
	m := NewModule(newTestProvider(t, server.URL, nil), &fakeCustomers{}, nil)

	result := m.UpdatePayment(context.Background(), provider.UpdateInput{
		InitiateInput: provider.InitiateInput{
			Amount:       10,
			CurrencyCode: "usd",
			Customer:     &provider.Customer{ID: "cus_1"},
		},
		Data: provider.SessionData{PaymentID: "pay_1", CustomerID: "hs_cus_old"},
	})
	require.False(t, result.Failed())
	assert.Equal(t, 1, vendor.calls(http.MethodPost, "/payments"))
}

func TestValidateOptions(t *testing.T) {
	assert.NoError(t, ValidateOptions(map[string]string{"apiKey": "k", "webhook_key": "w"}))
	assert.ErrorIs(t, ValidateOptions(map[string]string{"webhook_key": "w"}), provider.ErrMissingAPIKey)
	assert.ErrorIs(t, ValidateOptions(map[string]string{"api_key": "k"}), provider.ErrMissingWebhookSecret)
}

func TestModule_GetWebhookActionAndData(t *testing.T) {
	_, server := newFakeVendor(t)
	p := newTestProvider(t, server.URL, nil)
	refunds := &fakeRefunds{}
	m := NewModule(p, nil, refunds)

	event := func(eventType string) []byte {
		return []byte(`{"event_type":"` + eventType + `","event_id":"evt_1","content":{"object":{"payment_id":"pay_1","refund_id":"ref_1","amount_capturable":1050,"currency":"USD","metadata":{"session_id":"ps_1"}}}}`)
	}

	tests := []struct {
		eventType string
		action    provider.WebhookAction
		withData  bool
	}{
		{provider.EventPaymentAuthorized, provider.ActionAuthorized, true},
		{provider.EventPaymentSucceeded, provider.ActionSuccessful, true},
		{provider.EventPaymentFailed, provider.ActionFailed, true},
		{provider.EventRefundSucceeded, provider.ActionNotSupported, false},
		{provider.EventPaymentCancelled, provider.ActionNotSupported, false},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			body := event(tt.eventType)
			result := m.GetWebhookActionAndData(context.Background(), WebhookPayload{
				Data:    body,
				Headers: map[string]string{"X-Webhook-Signature-512": p.Verifier().Sign(body)},
			})
			assert.Equal(t, tt.action, result.Action)
			if tt.withData {
				require.NotNil(t, result.Data)
				assert.Equal(t, "ps_1", result.Data.SessionID)
				assert.Equal(t, 10.5, result.Data.Amount)
			} else {
				assert.Nil(t, result.Data)
			}
		})
	}

	assert.Len(t, refunds.events, 1)
}

func TestModule_GetWebhookActionAndData_StringBody(t *testing.T) {
	_, server := newFakeVendor(t)
	p := newTestProvider(t, server.URL, nil)
	m := NewModule(p, nil, nil)

	body := []byte(`{"event_type":"payment_succeeded","event_id":"evt_1","content":{"object":{"payment_id":"pay_1","amount_capturable":1050,"currency":"USD","metadata":{"session_id":"ps_1"}}}}`)
	quoted, err := json.Marshal(string(body))
	require.NoError(t, err)

	result := m.GetWebhookActionAndData(context.Background(), WebhookPayload{
		Data:    quoted,
		Headers: map[string]string{SignatureHeader: p.Verifier().Sign(body)},
	})
	assert.Equal(t, provider.ActionSuccessful, result.Action)
	require.NotNil(t, result.Data)
	assert.Equal(t, "ps_1", result.Data.SessionID)
}

func TestWebhookPayload_Body(t *testing.T) {
	object := []byte(`{"event_type":"payment_failed"}`)
	assert.Equal(t, object, WebhookPayload{Data: object}.Body())
	assert.Equal(t, object, WebhookPayload{Data: []byte(`"{\"event_type\":\"payment_failed\"}"`)}.Body())
	assert.Empty(t, WebhookPayload{}.Body())
}

func TestModule_GetWebhookActionAndData_BadSignature(t *testing.T) {
	_, server := newFakeVendor(t)
	refunds := &fakeRefunds{}
	m := NewModule(newTestProvider(t, server.URL, nil), nil, refunds)

	result := m.GetWebhookActionAndData(context.Background(), WebhookPayload{
		Data:    []byte(`{"event_type":"refund_succeeded","event_id":"evt_1","content":{"object":{}}}`),
		Headers: map[string]string{SignatureHeader: "deadbeef"},
	})
	assert.Equal(t, provider.ActionNotSupported, result.Action)
	assert.Empty(t, refunds.events)
}
