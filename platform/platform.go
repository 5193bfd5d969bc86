// Package platform describes the Medusa services the integration calls into.
// The reconciliation flow and the host bindings depend only on these interfaces.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/provider"
)

// ErrNotFound is returned when the platform has no such record
var ErrNotFound = errors.New("not found")

// PaymentStatusCaptured is the order payment status after capture
const PaymentStatusCaptured = "captured"

// Order is the part of a platform order the webhook flow reads
type Order struct {
	ID            string `json:"id"`
	CartID        string `json:"cart_id,omitempty"`
	PaymentStatus string `json:"payment_status"`
}

// Cart is the part of a platform cart the webhook flow reads
type Cart struct {
	ID                  string         `json:"id"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	PaymentAuthorizedAt *time.Time     `json:"payment_authorized_at,omitempty"`
	Context             map[string]any `json:"context,omitempty"`
}

// IP returns the customer ip recorded on the cart context
func (c *Cart) IP() string {
	if c == nil || c.Context == nil {
		return ""
	}
	ip, _ := c.Context["ip"].(string)
	return ip
}

// Completed reports whether the cart was completed with an authorized payment
func (c *Cart) Completed() bool {
	return c != nil && c.CompletedAt != nil && c.PaymentAuthorizedAt != nil
}

// CollectionPayment is a payment inside a payment collection
type CollectionPayment struct {
	ID         string         `json:"id"`
	Data       map[string]any `json:"data,omitempty"`
	CapturedAt *time.Time     `json:"captured_at,omitempty"`
}

// DataID returns the vendor payment id stored in the payment data
func (p CollectionPayment) DataID() string {
	if p.Data == nil {
		return ""
	}
	id, _ := p.Data["id"].(string)
	return id
}

// PaymentCollection groups payments not tied to a cart
type PaymentCollection struct {
	ID       string              `json:"id"`
	Payments []CollectionPayment `json:"payments"`
}

// CompletionResult is what the cart completion strategy answered
type CompletionResult struct {
	ResponseCode int             `json:"response_code"`
	ResponseBody json.RawMessage `json:"response_body,omitempty"`
}

// OrderService reads orders and captures their payment
type OrderService interface {
	RetrieveByCartID(ctx context.Context, cartID string) (*Order, error)
	CapturePayment(ctx context.Context, orderID string) error
}

// CartService reads carts
type CartService interface {
	Retrieve(ctx context.Context, cartID string) (*Cart, error)
}

// CartCompleter runs the platform cart completion strategy
type CartCompleter interface {
	Complete(ctx context.Context, cartID, idempotencyKey, ip string) (*CompletionResult, error)
}

// PaymentCollectionService reads payment collections and captures their payments
type PaymentCollectionService interface {
	Retrieve(ctx context.Context, collectionID string) (*PaymentCollection, error)
	CapturePayment(ctx context.Context, paymentID string) error
}

// RefundUpdater records refund status changes
type RefundUpdater interface {
	UpdateRefund(ctx context.Context, event *provider.WebhookEvent) error
}

// CustomerUpdater merges metadata into a platform customer
type CustomerUpdater interface {
	UpdateCustomerMetadata(ctx context.Context, customerID string, metadata map[string]string) error
}

// IdempotencyStore claims a (request path, key) pair at most once
type IdempotencyStore interface {
	Claim(ctx context.Context, requestPath, key string) (bool, error)
	Release(ctx context.Context, requestPath, key string) error
}
