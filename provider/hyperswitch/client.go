package hyperswitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/metrics"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiSandboxURL    = "https://sandbox.hyperswitch.io"
	apiProductionURL = "https://api.hyperswitch.io"

	endpointCustomers      = "/customers"
	endpointPayments       = "/payments"
	endpointPayment        = "/payments/%s"
	endpointPaymentCapture = "/payments/%s/capture"
	endpointPaymentCancel  = "/payments/%s/cancel"
	endpointRefunds        = "/refunds"

	headerAPIKey = "api-key"
)

// APIError is a non-2xx response from the Hyperswitch API
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("hyperswitch: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("hyperswitch: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to the Hyperswitch REST API
type Client struct {
	http    *provider.ProviderHTTPClient
	apiKey  string
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewClient creates a client for the given base URL and secret key
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(baseURL, timeout)),
		apiKey:  apiKey,
		metrics: metrics.Default(),
		tracer:  otel.Tracer("hyperswitch"),
	}
}

// CreateCustomer creates a vendor customer
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	var out CustomerResponse
	if err := c.do(ctx, "create_customer", http.MethodPost, endpointCustomers, req, &out); err != nil {
		return nil, err
	}
	if out.CustomerID == "" {
		return nil, errors.New("hyperswitch: customer response has no customer_id")
	}
	return &out, nil
}

// CreatePayment creates a vendor payment
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.do(ctx, "create_payment", http.MethodPost, endpointPayments, req, &out); err != nil {
		return nil, err
	}
	return normalize(&out), nil
}

// RetrievePayment fetches a vendor payment
func (c *Client) RetrievePayment(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.do(ctx, "retrieve_payment", http.MethodGet, paymentPath(endpointPayment, paymentID), nil, &out); err != nil {
		return nil, err
	}
	return normalize(&out), nil
}

// UpdatePayment updates an open vendor payment
func (c *Client) UpdatePayment(ctx context.Context, paymentID string, req PaymentUpdateRequest) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.do(ctx, "update_payment", http.MethodPost, paymentPath(endpointPayment, paymentID), req, &out); err != nil {
		return nil, err
	}
	return normalize(&out), nil
}

// CapturePayment captures an authorized vendor payment
func (c *Client) CapturePayment(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.do(ctx, "capture_payment", http.MethodPost, paymentPath(endpointPaymentCapture, paymentID), map[string]any{}, &out); err != nil {
		return nil, err
	}
	return normalize(&out), nil
}

// CancelPayment cancels a vendor payment
func (c *Client) CancelPayment(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	var out PaymentIntent
	body := map[string]string{"cancellation_reason": "requested_by_customer"}
	if err := c.do(ctx, "cancel_payment", http.MethodPost, paymentPath(endpointPaymentCancel, paymentID), body, &out); err != nil {
		return nil, err
	}
	return normalize(&out), nil
}

// CreateRefund refunds a vendor payment
func (c *Client) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	var out Refund
	if err := c.do(ctx, "create_refund", http.MethodPost, endpointRefunds, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, operation, method, endpoint string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "hyperswitch."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("hyperswitch.endpoint", endpoint),
		),
	)
	started := time.Now()
	defer func() {
		c.metrics.ObserveVendorCall(operation, err, time.Since(started))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	resp, err := c.http.SendJSON(ctx, &provider.HTTPRequest{
		Method:   method,
		Endpoint: endpoint,
		Body:     body,
		Headers:  map[string]string{headerAPIKey: c.apiKey},
	})
	if err != nil {
		var statusErr *provider.HTTPStatusError
		if errors.As(err, &statusErr) {
			return parseAPIError(statusErr)
		}
		return fmt.Errorf("hyperswitch: %s failed: %w", operation, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if out == nil {
		return nil
	}
	return c.http.ParseJSONResponse(resp, out)
}

func parseAPIError(statusErr *provider.HTTPStatusError) *APIError {
	apiErr := &APIError{StatusCode: statusErr.StatusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(statusErr.Body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = http.StatusText(statusErr.StatusCode)
	if len(statusErr.Body) > 0 {
		apiErr.Message = string(statusErr.Body)
	}
	return apiErr
}

func paymentPath(format, paymentID string) string {
	return fmt.Sprintf(format, url.PathEscape(paymentID))
}

// normalize sets the session id from the vendor payment id
func normalize(intent *PaymentIntent) *PaymentIntent {
	if intent.PaymentID != "" {
		intent.ID = intent.PaymentID
	}
	return intent
}
