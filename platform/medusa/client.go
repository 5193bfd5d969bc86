package medusa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/platform"
	"github.com/mstgnz/medusa-hyperswitch/provider"
)

const (
	endpointOrders            = "/admin/orders"
	endpointOrderCapture      = "/admin/orders/%s/capture"
	endpointCart              = "/store/carts/%s"
	endpointCartComplete      = "/store/carts/%s/complete"
	endpointPaymentCollection = "/admin/payment-collections/%s"
	endpointPaymentCapture    = "/admin/payments/%s/capture"
	endpointCustomer          = "/admin/customers/%s"

	headerIdempotencyKey = "Idempotency-Key"
	headerPublishableKey = "x-publishable-api-key"

	orderFields             = "id,cart_id,payment_status"
	cartFields              = "id,completed_at,payment_authorized_at,context"
	paymentCollectionFields = "id,*payments"
)

// Config holds the Medusa server address and credentials
type Config struct {
	BaseURL        string
	APIToken       string
	PublishableKey string
	Timeout        time.Duration
}

// Client implements the platform services against the Medusa REST API
type Client struct {
	http           *provider.ProviderHTTPClient
	apiToken       string
	publishableKey string
}

var (
	_ platform.OrderService             = (*Client)(nil)
	_ platform.CartService              = (*Client)(nil)
	_ platform.CartCompleter            = (*Client)(nil)
	_ platform.CustomerUpdater          = (*Client)(nil)
	_ platform.PaymentCollectionService = paymentCollections{}
)

// NewClient creates a Medusa client
func NewClient(cfg Config) *Client {
	return &Client{
		http:           provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(cfg.BaseURL, cfg.Timeout)),
		apiToken:       cfg.APIToken,
		publishableKey: cfg.PublishableKey,
	}
}

// RetrieveByCartID finds the order created from a cart
func (c *Client) RetrieveByCartID(ctx context.Context, cartID string) (*platform.Order, error) {
	var out struct {
		Orders []platform.Order `json:"orders"`
	}
	err := c.get(ctx, endpointOrders, map[string]string{
		"cart_id": cartID,
		"fields":  orderFields,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Orders) == 0 {
		return nil, fmt.Errorf("order for cart %s: %w", cartID, platform.ErrNotFound)
	}
	return &out.Orders[0], nil
}

// CapturePayment captures the payment of an order
func (c *Client) CapturePayment(ctx context.Context, orderID string) error {
	return c.post(ctx, fmt.Sprintf(endpointOrderCapture, url.PathEscape(orderID)), nil, map[string]any{}, nil)
}

// Retrieve reads a cart
func (c *Client) Retrieve(ctx context.Context, cartID string) (*platform.Cart, error) {
	var out struct {
		Cart platform.Cart `json:"cart"`
	}
	err := c.get(ctx, fmt.Sprintf(endpointCart, url.PathEscape(cartID)), map[string]string{"fields": cartFields}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Cart, nil
}

// Complete runs cart completion; a non-2xx answer is returned as a result, not an error
func (c *Client) Complete(ctx context.Context, cartID, idempotencyKey, ip string) (*platform.CompletionResult, error) {
	headers := map[string]string{headerIdempotencyKey: idempotencyKey}
	if ip != "" {
		headers["X-Forwarded-For"] = ip
	}

	resp, err := c.http.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(endpointCartComplete, url.PathEscape(cartID)),
		Headers:  c.headers(headers),
		Body:     map[string]any{},
	})
	if err != nil {
		var statusErr *provider.HTTPStatusError
		if !errors.As(err, &statusErr) {
			return nil, fmt.Errorf("failed to complete cart %s: %w", cartID, err)
		}
	}

	result := &platform.CompletionResult{ResponseCode: resp.StatusCode}
	if len(resp.Body) > 0 && json.Valid(resp.Body) {
		result.ResponseBody = resp.Body
	}
	return result, nil
}

// RetrievePaymentCollection reads a payment collection with its payments
func (c *Client) RetrievePaymentCollection(ctx context.Context, collectionID string) (*platform.PaymentCollection, error) {
	var out struct {
		PaymentCollection platform.PaymentCollection `json:"payment_collection"`
	}
	err := c.get(ctx, fmt.Sprintf(endpointPaymentCollection, url.PathEscape(collectionID)), map[string]string{"fields": paymentCollectionFields}, &out)
	if err != nil {
		return nil, err
	}
	return &out.PaymentCollection, nil
}

// CapturePaymentByID captures a single platform payment
func (c *Client) CapturePaymentByID(ctx context.Context, paymentID string) error {
	return c.post(ctx, fmt.Sprintf(endpointPaymentCapture, url.PathEscape(paymentID)), nil, map[string]any{}, nil)
}

// UpdateCustomerMetadata merges metadata into a customer
func (c *Client) UpdateCustomerMetadata(ctx context.Context, customerID string, metadata map[string]string) error {
	if customerID == "" {
		return errors.New("customer id is required")
	}
	body := map[string]any{"metadata": metadata}
	if err := c.post(ctx, fmt.Sprintf(endpointCustomer, url.PathEscape(customerID)), nil, body, nil); err != nil {
		return fmt.Errorf("failed to update customer %s: %w", customerID, err)
	}
	logger.Info("Customer metadata updated", logger.LogContext{
		Provider: "medusa",
		Fields:   map[string]any{"customer_id": customerID},
	})
	return nil
}

// PaymentCollections adapts the client to platform.PaymentCollectionService
func (c *Client) PaymentCollections() platform.PaymentCollectionService {
	return paymentCollections{c}
}

type paymentCollections struct {
	c *Client
}

func (p paymentCollections) Retrieve(ctx context.Context, collectionID string) (*platform.PaymentCollection, error) {
	return p.c.RetrievePaymentCollection(ctx, collectionID)
}

func (p paymentCollections) CapturePayment(ctx context.Context, paymentID string) error {
	return p.c.CapturePaymentByID(ctx, paymentID)
}

func (c *Client) get(ctx context.Context, endpoint string, query map[string]string, out any) error {
	resp, err := c.http.SendJSON(ctx, &provider.HTTPRequest{
		Method:      http.MethodGet,
		Endpoint:    endpoint,
		Headers:     c.headers(nil),
		QueryParams: query,
	})
	if err != nil {
		return mapError(err)
	}
	return c.http.ParseJSONResponse(resp, out)
}

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, body, out any) error {
	resp, err := c.http.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Headers:  c.headers(headers),
		Body:     body,
	})
	if err != nil {
		return mapError(err)
	}
	if out == nil {
		return nil
	}
	return c.http.ParseJSONResponse(resp, out)
}

func (c *Client) headers(extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+2)
	if c.apiToken != "" {
		headers["Authorization"] = "Bearer " + c.apiToken
	}
	if c.publishableKey != "" {
		headers[headerPublishableKey] = c.publishableKey
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func mapError(err error) error {
	var statusErr *provider.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
	}
	return err
}
