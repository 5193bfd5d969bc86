package hyperswitch

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/xeipuuv/gojsonschema"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body
const SignatureHeader = "x-webhook-signature-512"

var (
	// ErrInvalidSignature is returned when a webhook signature does not match its body
	ErrInvalidSignature = errors.New("unable to verify the webhook payload")
	// ErrInvalidEnvelope is returned when a signed body is not a webhook envelope
	ErrInvalidEnvelope = errors.New("invalid webhook envelope")
)

const envelopeSchema = `{
	"type": "object",
	"required": ["event_type", "event_id", "content"],
	"properties": {
		"event_type": {"type": "string", "minLength": 1},
		"event_id": {"type": "string", "minLength": 1},
		"content": {
			"type": "object",
			"required": ["object"],
			"properties": {
				"object": {"type": "object"}
			}
		}
	}
}`

// Verifier authenticates inbound webhooks with the shared webhook secret
type Verifier struct {
	secret []byte
	schema *gojsonschema.Schema
}

// NewVerifier creates a verifier; an empty secret is a configuration error
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, provider.ErrMissingWebhookSecret
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile webhook schema: %w", err)
	}

	return &Verifier{secret: []byte(secret), schema: schema}, nil
}

// Sign returns the hex signature the vendor would send for body
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature over the exact raw body and parses the event
func (v *Verifier) Verify(rawBody []byte, signature string) (*provider.WebhookEvent, error) {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) != sha512.Size {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, v.secret)
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), got) {
		return nil, ErrInvalidSignature
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(rawBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvelope, strings.Join(messages, "; "))
	}

	var event provider.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &event, nil
}
