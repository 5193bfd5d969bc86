package provider

import (
	"encoding/json"
	"fmt"
	"maps"
)

// SessionData is the vendor payment snapshot stored on a platform payment session.
// Fields the integration reads are typed; everything else the vendor returns is
// carried through untouched in Extra.
type SessionData struct {
	ID               string         `json:"id,omitempty"`
	PaymentID        string         `json:"payment_id,omitempty"`
	CustomerID       string         `json:"customer_id,omitempty"`
	Status           string         `json:"status,omitempty"`
	Amount           int64          `json:"amount,omitempty"`
	AmountCapturable int64          `json:"amount_capturable,omitempty"`
	Currency         string         `json:"currency,omitempty"`
	CaptureMethod    string         `json:"capture_method,omitempty"`
	ClientSecret     string         `json:"client_secret,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var sessionKeys = []string{
	"id", "payment_id", "customer_id", "status", "amount", "amount_capturable",
	"currency", "capture_method", "client_secret", "metadata",
}

// MetadataString returns a string metadata value or an empty string
func (d SessionData) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	v, _ := d.Metadata[key].(string)
	return v
}

// Clone returns a deep enough copy for callers that mutate maps
func (d SessionData) Clone() SessionData {
	out := d
	out.Metadata = maps.Clone(d.Metadata)
	out.Extra = maps.Clone(d.Extra)
	return out
}

// MarshalJSON writes the typed fields over the pass-through fields
func (d SessionData) MarshalJSON() ([]byte, error) {
	type known SessionData
	base, err := json.Marshal(known(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	fields := make(map[string]json.RawMessage, len(d.Extra)+len(sessionKeys))
	maps.Copy(fields, d.Extra)

	var typed map[string]json.RawMessage
	if err := json.Unmarshal(base, &typed); err != nil {
		return nil, err
	}
	maps.Copy(fields, typed)

	return json.Marshal(fields)
}

// UnmarshalJSON reads the typed fields and keeps the rest in Extra
func (d *SessionData) UnmarshalJSON(b []byte) error {
	type known SessionData
	var k known
	if err := json.Unmarshal(b, &k); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, key := range sessionKeys {
		delete(all, key)
	}

	*d = SessionData(k)
	if len(all) > 0 {
		d.Extra = all
	}
	return nil
}

// PaymentError is the structured failure a lifecycle operation hands back to the
// platform. Its JSON form is the session data it was given plus an "error" field,
// so a caller that persists it loses nothing.
type PaymentError struct {
	Message string
	Code    string
	Detail  string
	Data    *SessionData
	Err     error
}

// NewPaymentError creates a payment error wrapping the underlying cause
func NewPaymentError(message string, err error) *PaymentError {
	pe := &PaymentError{Message: message, Err: err}
	if err != nil {
		pe.Detail = err.Error()
	}
	return pe
}

// WithData attaches a copy of the session data to the error
func (e *PaymentError) WithData(data SessionData) *PaymentError {
	clone := data.Clone()
	e.Data = &clone
	return e
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// MarshalJSON writes the session data fields followed by error, code and detail
func (e *PaymentError) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}

	put := func(key, value string) {
		if value == "" {
			return
		}
		b, _ := json.Marshal(value)
		fields[key] = b
	}
	put("error", e.Message)
	put("code", e.Code)
	put("detail", e.Detail)

	return json.Marshal(fields)
}
