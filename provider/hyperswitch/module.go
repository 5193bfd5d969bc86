package hyperswitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/platform"
	"github.com/mstgnz/medusa-hyperswitch/provider"
)

// WebhookPayload is a raw webhook as the module host hands it over
type WebhookPayload struct {
	Data    []byte
	Headers map[string]string
}

// Header returns a header value regardless of key case
func (w WebhookPayload) Header(name string) string {
	for k, v := range w.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Body returns the signed webhook bytes. Hosts forward the body either as the
// JSON object itself or as a JSON string holding it.
func (w WebhookPayload) Body() []byte {
	trimmed := bytes.TrimSpace(w.Data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return w.Data
	}
	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return w.Data
	}
	return []byte(raw)
}

// WebhookActionData identifies the session a webhook action applies to
type WebhookActionData struct {
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
}

// WebhookActionResult is the action the module host applies for a webhook
type WebhookActionResult struct {
	Action provider.WebhookAction `json:"action"`
	Data   *WebhookActionData     `json:"data,omitempty"`
}

// Module binds the provider to the payment module host. A succeeded payment is
// reported as captured by default, and customer metadata is written back
// through the platform before the payment is created.
type Module struct {
	provider  *Provider
	customers platform.CustomerUpdater
	refunds   platform.RefundUpdater
}

var _ provider.SessionBinding = (*Module)(nil)

// NewModule creates the module binding; customers and refunds may be nil
func NewModule(p *Provider, customers platform.CustomerUpdater, refunds platform.RefundUpdater) *Module {
	return &Module{
		provider:  p.WithDefaultSucceededPolicy(provider.SucceededAsCaptured),
		customers: customers,
		refunds:   refunds,
	}
}

// ValidateOptions rejects an option map without credentials
func ValidateOptions(conf map[string]string) error {
	conf = provider.NormalizeConfig(conf, requiredConfig)
	if strings.TrimSpace(conf["api_key"]) == "" {
		logger.Error("Invalid options passed to module", provider.ErrMissingAPIKey, logger.LogContext{Provider: ProviderName})
		return fmt.Errorf("invalid options passed to module: %w", provider.ErrMissingAPIKey)
	}
	if strings.TrimSpace(conf["webhook_response_hash"]) == "" {
		logger.Error("Invalid options passed to module", provider.ErrMissingWebhookSecret, logger.LogContext{Provider: ProviderName})
		return fmt.Errorf("invalid options passed to module: %w", provider.ErrMissingWebhookSecret)
	}
	return nil
}

// InitiatePayment opens a payment session
func (m *Module) InitiatePayment(ctx context.Context, input provider.InitiateInput) provider.Result {
	if input.Customer != nil {
		customerID, created, err := m.provider.ResolveCustomer(ctx, input)
		if err != nil {
			return provider.Fail(provider.NewPaymentError("Unable to initiate payment, error at customer create", err))
		}
		if created && m.customers != nil {
			meta := map[string]string{provider.CustomerMetadataKey: customerID}
			if err := m.customers.UpdateCustomerMetadata(ctx, input.Customer.ID, meta); err != nil {
				logger.WithProvider(ProviderName).Error("Unable to update medusa customer object", err)
				return provider.Fail(provider.NewPaymentError("Unable to initiate payment, error at customer create", err))
			}
		}
		input.Customer = withVendorCustomer(input.Customer, customerID)
	}

	resp, err := m.provider.InitiatePayment(ctx, input)
	if err != nil {
		return provider.FailWith(err, "Unable to initiate payment")
	}
	return provider.OK(resp)
}

// UpdatePayment updates the amount or re-initiates the session for a new customer
func (m *Module) UpdatePayment(ctx context.Context, input provider.UpdateInput) provider.Result {
	if input.Customer.VendorCustomerID() != input.Data.CustomerID {
		result := m.InitiatePayment(ctx, input.InitiateInput)
		if result.Failed() {
			logger.WithProvider(ProviderName).Error("Unable to update payment", result.Err())
			return provider.Fail(provider.NewPaymentError("Unable to update payment", result.Err()))
		}
		return result
	}

	resp, err := m.provider.UpdatePayment(ctx, input)
	if err != nil {
		return provider.FailWith(err, "Unable to update payment")
	}
	return provider.OK(resp)
}

// AuthorizePayment reports the session status
func (m *Module) AuthorizePayment(ctx context.Context, data provider.SessionData) provider.Result {
	result, err := m.provider.AuthorizePayment(ctx, data)
	if err != nil {
		return provider.FailWith(err, "Payment authorization failed")
	}
	return provider.OK(result)
}

// CapturePayment captures the payment
func (m *Module) CapturePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(m.provider.CapturePayment(ctx, data))
}

// CancelPayment cancels the payment
func (m *Module) CancelPayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(m.provider.CancelPayment(ctx, data))
}

// DeletePayment cancels the payment
func (m *Module) DeletePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(m.provider.DeletePayment(ctx, data))
}

// RefundPayment refunds amount, given in major units
func (m *Module) RefundPayment(ctx context.Context, data provider.SessionData, amount float64) provider.Result {
	return refundResult(m.provider.RefundPayment(ctx, data, amount))
}

// RetrievePayment fetches the payment
func (m *Module) RetrievePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(m.provider.RetrievePayment(ctx, data))
}

// GetPaymentStatus maps the payment status; a failed lookup yields the error status
func (m *Module) GetPaymentStatus(ctx context.Context, data provider.SessionData) provider.Result {
	return statusResult(m.provider.GetPaymentStatus(ctx, data))
}

// GetWebhookActionAndData verifies a webhook and maps it to a host action.
// Anything that cannot be verified or mapped is not supported.
func (m *Module) GetWebhookActionAndData(ctx context.Context, payload WebhookPayload) WebhookActionResult {
	log := logger.WithProvider(ProviderName)

	event, err := m.provider.ConstructWebhookEvent(payload.Body(), payload.Header(SignatureHeader))
	if err != nil {
		log.Error("Webhook event failed", err)
		return WebhookActionResult{Action: provider.ActionNotSupported}
	}

	object := event.Content.Object
	data := &WebhookActionData{
		SessionID: object.SessionID(),
		Amount:    provider.AmountFromSmallestUnit(object.AmountCapturable, object.Currency),
	}
	log.AddField("event_type", event.EventType).AddField("payment_id", object.PaymentID).Info("Webhook event received")

	switch event.EventType {
	case provider.EventPaymentAuthorized:
		return WebhookActionResult{Action: provider.ActionAuthorized, Data: data}
	case provider.EventPaymentSucceeded:
		return WebhookActionResult{Action: provider.ActionSuccessful, Data: data}
	case provider.EventPaymentFailed:
		return WebhookActionResult{Action: provider.ActionFailed, Data: data}
	case provider.EventRefundSucceeded, provider.EventRefundFailed:
		if m.refunds != nil {
			if err := m.refunds.UpdateRefund(ctx, event); err != nil {
				log.Error("Refund status update failed", err)
			}
		}
	}
	return WebhookActionResult{Action: provider.ActionNotSupported}
}

func withVendorCustomer(customer *provider.Customer, vendorID string) *provider.Customer {
	out := *customer
	out.Metadata = maps.Clone(customer.Metadata)
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	out.Metadata[provider.CustomerMetadataKey] = vendorID
	return &out
}
