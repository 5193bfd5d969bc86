package provider

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when no vendor API key could be resolved
	ErrMissingAPIKey = errors.New("hyperswitch: api key is required")
	// ErrMissingWebhookSecret is returned when no webhook signing secret could be resolved
	ErrMissingWebhookSecret = errors.New("hyperswitch: webhook secret is required")
	// ErrNoPaymentID is returned when session data carries no vendor payment id
	ErrNoPaymentID = errors.New("session data has no payment_id")
	// ErrNotImplemented is returned by host operations the integration does not support
	ErrNotImplemented = errors.New("method not implemented")
)

// SessionStatus is the platform-side status of a payment session
type SessionStatus string

const (
	StatusPending      SessionStatus = "pending"
	StatusRequiresMore SessionStatus = "requires_more"
	StatusAuthorized   SessionStatus = "authorized"
	StatusCaptured     SessionStatus = "captured"
	StatusCanceled     SessionStatus = "canceled"
	StatusError        SessionStatus = "error"
)

// ConfigField represents a configuration option accepted by a payment provider
type ConfigField struct {
	Key         string   `json:"key"`
	Aliases     []string `json:"aliases,omitempty"`
	Required    bool     `json:"required"`
	Type        string   `json:"type"` // "string", "boolean", "list", "enum"
	Description string   `json:"description"`
	Example     string   `json:"example"`
	OneOf       []string `json:"oneOf,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	MinLength   int      `json:"minLength,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
}

// Address is the billing address attached to a checkout
type Address struct {
	Address1    string `json:"address_1,omitempty"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Province    string `json:"province,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Customer is the platform customer paying for the session
type Customer struct {
	ID       string         `json:"id"`
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VendorCustomerID returns the cached vendor customer id from the customer metadata
func (c *Customer) VendorCustomerID() string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	id, _ := c.Metadata[CustomerMetadataKey].(string)
	return id
}

// CustomerMetadataKey is the platform customer metadata key holding the vendor customer id
const CustomerMetadataKey = "hyperswitch_customer_id"

// InitiateInput carries everything needed to open a payment session
type InitiateInput struct {
	Amount         float64   `json:"amount" validate:"gt=0"`
	CurrencyCode   string    `json:"currency_code" validate:"required,len=3"`
	Email          string    `json:"email,omitempty" validate:"omitempty,email"`
	SessionID      string    `json:"session_id,omitempty"`
	ResourceID     string    `json:"resource_id,omitempty"`
	Description    string    `json:"payment_description,omitempty"`
	Customer       *Customer `json:"customer,omitempty"`
	BillingAddress *Address  `json:"billing_address,omitempty"`
}

// UpdateInput carries a session update together with the current session data
type UpdateInput struct {
	InitiateInput
	Data SessionData `json:"data"`
}

// UpdateRequests instructs the caller to persist data produced by the provider
type UpdateRequests struct {
	CustomerMetadata map[string]string `json:"customer_metadata,omitempty"`
}

// SessionResponse is the outcome of initiating or re-initiating a session
type SessionResponse struct {
	Data           SessionData     `json:"data"`
	UpdateRequests *UpdateRequests `json:"update_requests,omitempty"`
}

// AuthorizeResult is the outcome of an authorize call
type AuthorizeResult struct {
	Status SessionStatus `json:"status"`
	Data   SessionData   `json:"data"`
}

// PaymentProvider defines the payment session lifecycle a provider implements
type PaymentProvider interface {
	// GetRequiredConfig returns the options this provider accepts
	GetRequiredConfig() []ConfigField

	// InitiatePayment opens a new vendor payment for a checkout
	InitiatePayment(ctx context.Context, input InitiateInput) (*SessionResponse, error)

	// AuthorizePayment reports the current status without mutating vendor state
	AuthorizePayment(ctx context.Context, data SessionData) (*AuthorizeResult, error)

	// CapturePayment captures an authorized payment unless it is already settled
	CapturePayment(ctx context.Context, data SessionData) (*SessionData, error)

	// CancelPayment cancels a payment, treating an already canceled payment as success
	CancelPayment(ctx context.Context, data SessionData) (*SessionData, error)

	// DeletePayment discards a session by canceling its payment
	DeletePayment(ctx context.Context, data SessionData) (*SessionData, error)

	// RefundPayment refunds the given amount (in major units) of a payment
	RefundPayment(ctx context.Context, data SessionData, amount float64) (*SessionData, error)

	// RetrievePayment fetches the current vendor payment
	RetrievePayment(ctx context.Context, data SessionData) (*SessionData, error)

	// UpdatePayment changes the payment amount or re-initiates on customer swap
	UpdatePayment(ctx context.Context, input UpdateInput) (*SessionResponse, error)

	// GetPaymentStatus maps the vendor status to a session status
	GetPaymentStatus(ctx context.Context, data SessionData) (SessionStatus, error)

	// ConstructWebhookEvent verifies a webhook signature and parses the event
	ConstructWebhookEvent(rawBody []byte, signature string) (*WebhookEvent, error)
}

// ProviderFactory creates a configured provider from its options
type ProviderFactory func(conf map[string]string) (PaymentProvider, error)
