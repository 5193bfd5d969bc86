package hyperswitch

import "github.com/mstgnz/medusa-hyperswitch/provider"

// PaymentIntent is a Hyperswitch payment as returned by the API. It is decoded
// straight into session data so fields the integration does not read survive.
type PaymentIntent = provider.SessionData

// CustomerRequest creates a vendor customer
type CustomerRequest struct {
	Email       string            `json:"email,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CustomerResponse is the vendor customer returned on creation
type CustomerResponse struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email,omitempty"`
}

// PaymentRequest creates a vendor payment
type PaymentRequest struct {
	Amount                    int64             `json:"amount"`
	Currency                  string            `json:"currency"`
	Description               string            `json:"description,omitempty"`
	AllowedPaymentMethodTypes []string          `json:"allowed_payment_method_types,omitempty"`
	AuthenticationType        string            `json:"authentication_type,omitempty"`
	CaptureMethod             string            `json:"capture_method,omitempty"`
	Metadata                  map[string]string `json:"metadata,omitempty"`
	ProfileID                 string            `json:"profile_id,omitempty"`
	Billing                   *Billing          `json:"billing,omitempty"`
	Customer                  *CustomerRef      `json:"customer,omitempty"`
}

// PaymentUpdateRequest changes an open vendor payment
type PaymentUpdateRequest struct {
	Amount int64 `json:"amount"`
}

// CustomerRef points a payment at an existing vendor customer
type CustomerRef struct {
	ID string `json:"id"`
}

// Billing holds the billing details sent with a payment
type Billing struct {
	Email   string          `json:"email,omitempty"`
	Address *BillingAddress `json:"address,omitempty"`
	Phone   *Phone          `json:"phone,omitempty"`
}

// BillingAddress is the vendor address shape
type BillingAddress struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Line1   string `json:"line1,omitempty"`
	Line2   string `json:"line2,omitempty"`
	Zip     string `json:"zip,omitempty"`
	State   string `json:"state,omitempty"`
}

// Phone is a phone number split into calling code and national number
type Phone struct {
	Number      string `json:"number,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// RefundRequest refunds part or all of a payment
type RefundRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Refund is the vendor refund returned on creation
type Refund struct {
	RefundID  string `json:"refund_id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// errorEnvelope is the error body the vendor returns on non-2xx responses
type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
