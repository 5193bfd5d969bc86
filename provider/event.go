package provider

// Webhook event types sent by Hyperswitch
const (
	EventPaymentSucceeded  = "payment_succeeded"
	EventPaymentFailed     = "payment_failed"
	EventPaymentCancelled  = "payment_cancelled"
	EventPaymentAuthorized = "payment_authorized"
	EventPaymentCaptured   = "payment_captured"
	EventActionRequired    = "action_required"
	EventRefundSucceeded   = "refund_succeeded"
	EventRefundFailed      = "refund_failed"
)

// WebhookAction is the signal a webhook event produces for the platform
type WebhookAction string

const (
	ActionAuthorized   WebhookAction = "authorized"
	ActionSuccessful   WebhookAction = "captured"
	ActionFailed       WebhookAction = "failed"
	ActionRequiresMore WebhookAction = "requires_more"
	ActionRefund       WebhookAction = "refund_updated"
	ActionNotSupported WebhookAction = "not_supported"
)

// WebhookEvent is the envelope of a Hyperswitch webhook
type WebhookEvent struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Content   WebhookContent `json:"content"`
}

// WebhookContent wraps the object the event is about
type WebhookContent struct {
	Object WebhookObject `json:"object"`
}

// LastPaymentError holds the last vendor-side failure of a payment
type LastPaymentError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WebhookObject is the payment or refund snapshot carried by an event
type WebhookObject struct {
	PaymentID        string            `json:"payment_id"`
	RefundID         string            `json:"refund_id,omitempty"`
	Status           string            `json:"status,omitempty"`
	Amount           int64             `json:"amount,omitempty"`
	AmountCapturable int64             `json:"amount_capturable,omitempty"`
	Currency         string            `json:"currency,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	LastPaymentError *LastPaymentError `json:"last_payment_error,omitempty"`
}

// MetadataString returns a string metadata value or an empty string
func (o WebhookObject) MetadataString(key string) string {
	if o.Metadata == nil {
		return ""
	}
	v, _ := o.Metadata[key].(string)
	return v
}

// ResourceID returns the platform resource the payment was opened for
func (o WebhookObject) ResourceID() string {
	return o.MetadataString("resource_id")
}

// CartID returns the cart reference, falling back to the resource id for
// payments created before cart_id was recorded
func (o WebhookObject) CartID() string {
	if id := o.MetadataString("cart_id"); id != "" {
		return id
	}
	return o.ResourceID()
}

// SessionID returns the platform payment session id
func (o WebhookObject) SessionID() string {
	return o.MetadataString("session_id")
}
