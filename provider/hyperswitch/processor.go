package hyperswitch

import (
	"context"
	"errors"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/provider"
)

// ProcessorSession is the legacy session envelope
type ProcessorSession struct {
	SessionData    provider.SessionData     `json:"session_data"`
	UpdateRequests *provider.UpdateRequests `json:"update_requests,omitempty"`
}

// Processor binds the provider to the legacy payment processor host. That host
// passes amounts in the currency's smallest unit and reports a succeeded
// payment as authorized by default.
type Processor struct {
	provider *Provider
}

var _ provider.SessionBinding = (*Processor)(nil)

// NewProcessor creates the legacy binding
func NewProcessor(p *Provider) *Processor {
	return &Processor{provider: p.WithDefaultSucceededPolicy(provider.SucceededAsAuthorized)}
}

// InitiatePayment opens a payment session
func (b *Processor) InitiatePayment(ctx context.Context, input provider.InitiateInput) provider.Result {
	input.Amount = provider.AmountFromSmallestUnit(int64(input.Amount), input.CurrencyCode)

	resp, err := b.provider.InitiatePayment(ctx, input)
	if err != nil {
		return provider.FailWith(err, "Unable to initiate payment")
	}
	return provider.OK(ProcessorSession{SessionData: resp.Data, UpdateRequests: resp.UpdateRequests})
}

// UpdatePayment updates the amount or re-initiates the session
func (b *Processor) UpdatePayment(ctx context.Context, input provider.UpdateInput) provider.Result {
	input.Amount = provider.AmountFromSmallestUnit(int64(input.Amount), input.CurrencyCode)

	resp, err := b.provider.UpdatePayment(ctx, input)
	if err != nil {
		return provider.FailWith(err, "Unable to update payment")
	}
	return provider.OK(ProcessorSession{SessionData: resp.Data, UpdateRequests: resp.UpdateRequests})
}

// UpdatePaymentData is not supported by this integration
func (b *Processor) UpdatePaymentData(ctx context.Context, sessionID string, data map[string]any) provider.Result {
	return provider.Fail(provider.NewPaymentError("Method not implemented", provider.ErrNotImplemented))
}

// AuthorizePayment reports the session status
func (b *Processor) AuthorizePayment(ctx context.Context, data provider.SessionData) provider.Result {
	result, err := b.provider.AuthorizePayment(ctx, data)
	if err != nil {
		return provider.FailWith(err, "Payment authorization failed")
	}
	return provider.OK(result)
}

// CapturePayment captures the payment
func (b *Processor) CapturePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(b.provider.CapturePayment(ctx, data))
}

// CancelPayment cancels the payment
func (b *Processor) CancelPayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(b.provider.CancelPayment(ctx, data))
}

// DeletePayment cancels the payment
func (b *Processor) DeletePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(b.provider.DeletePayment(ctx, data))
}

// RefundPayment refunds amount, given in the smallest currency unit
func (b *Processor) RefundPayment(ctx context.Context, data provider.SessionData, amount float64) provider.Result {
	major := provider.AmountFromSmallestUnit(int64(amount), data.Currency)
	return refundResult(b.provider.RefundPayment(ctx, data, major))
}

// RetrievePayment fetches the payment
func (b *Processor) RetrievePayment(ctx context.Context, data provider.SessionData) provider.Result {
	return dataResult(b.provider.RetrievePayment(ctx, data))
}

// GetPaymentStatus maps the payment status; a failed lookup yields the error status
func (b *Processor) GetPaymentStatus(ctx context.Context, data provider.SessionData) provider.Result {
	return statusResult(b.provider.GetPaymentStatus(ctx, data))
}

func dataResult(data *provider.SessionData, err error) provider.Result {
	if err != nil {
		return provider.FailWith(err, "Hyperswitch request failed")
	}
	return provider.OK(data)
}

func refundResult(data *provider.SessionData, err error) provider.Result {
	if errors.Is(err, provider.ErrNoPaymentID) {
		return provider.Empty()
	}
	return dataResult(data, err)
}

func statusResult(status provider.SessionStatus, err error) provider.Result {
	if err != nil {
		logger.WithProvider(ProviderName).Error("Payment status lookup failed", err)
	}
	return provider.OK(provider.StatusResult{Status: status})
}
