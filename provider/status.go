package provider

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

// SucceededPolicy decides which session status a settled vendor payment maps to.
// The two host generations disagree, so the choice is always explicit.
type SucceededPolicy string

const (
	// SucceededAsAuthorized lets the platform run its own capture step
	SucceededAsAuthorized SucceededPolicy = "authorized"
	// SucceededAsCaptured reports a settled payment as already captured
	SucceededAsCaptured SucceededPolicy = "captured"
)

// ParseSucceededPolicy parses an option value; empty returns the fallback
func ParseSucceededPolicy(value string, fallback SucceededPolicy) (SucceededPolicy, error) {
	switch SucceededPolicy(value) {
	case "":
		return fallback, nil
	case SucceededAsAuthorized, SucceededAsCaptured:
		return SucceededPolicy(value), nil
	default:
		return "", fmt.Errorf("invalid succeeded status %q, expected %q or %q", value, SucceededAsAuthorized, SucceededAsCaptured)
	}
}

// MapIntentStatus maps a vendor payment status to a session status.
// Hyperswitch uses the Stripe payment intent vocabulary.
func MapIntentStatus(status string, policy SucceededPolicy) SessionStatus {
	switch stripe.PaymentIntentStatus(status) {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusProcessing:
		return StatusPending
	case stripe.PaymentIntentStatusRequiresAction:
		return StatusRequiresMore
	case stripe.PaymentIntentStatusRequiresCapture:
		return StatusAuthorized
	case stripe.PaymentIntentStatusSucceeded:
		if policy == SucceededAsCaptured {
			return StatusCaptured
		}
		return StatusAuthorized
	case stripe.PaymentIntentStatusCanceled:
		return StatusCanceled
	default:
		return StatusPending
	}
}

// IsSettled reports whether a vendor status needs no further capture
func IsSettled(status string) bool {
	return stripe.PaymentIntentStatus(status) == stripe.PaymentIntentStatusSucceeded
}

// IsCanceled reports whether a vendor status is canceled
func IsCanceled(status string) bool {
	return stripe.PaymentIntentStatus(status) == stripe.PaymentIntentStatusCanceled
}
