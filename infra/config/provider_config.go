package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderID is the fixed id of the persisted settings row
const ProviderID = "hyperswitch"

// envOptions maps environment variables to provider option keys
var envOptions = map[string]string{
	"HYPERSWITCH_API_KEY":                      "api_key",
	"HYPERSWITCH_SANDBOX":                      "sandbox",
	"HYPERSWITCH_ALLOWED_PAYMENT_METHOD_TYPES": "allowed_payment_method_types",
	"HYPERSWITCH_CAPTURE_METHOD":               "capture_method",
	"HYPERSWITCH_WEBHOOK_KEY":                  "webhook_response_hash",
	"HYPERSWITCH_PROFILE_ID":                   "profile_id",
	"HYPERSWITCH_SUCCEEDED_STATUS":             "succeeded_status",
	"HYPERSWITCH_TIMEOUT":                      "timeout",
	"HYPERSWITCH_BASE_URL":                     "base_url",
}

// PersistedSettings is the settings blob stored on the payment provider row
type PersistedSettings struct {
	APIKey              string `json:"api_key" validate:"required"`
	WebhookResponseHash string `json:"webhook_response_hash" validate:"required"`
}

// LoadProviderOptions reads static provider options from the environment
func LoadProviderOptions() map[string]string {
	options := make(map[string]string)
	for env, key := range envOptions {
		if value := strings.TrimSpace(GetEnv(env, "")); value != "" {
			options[key] = value
		}
	}
	return options
}

// ParsePersistedSettings decodes a stored settings blob. Older writers stored the
// JSON object as a JSON string, so one level of string encoding is unwrapped.
func ParsePersistedSettings(raw string) (*PersistedSettings, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil {
		raw = inner
	}

	var settings PersistedSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode provider settings: %w", err)
	}
	return &settings, nil
}

// ApplyPersistedSettings overlays non-empty persisted credentials on static options
func ApplyPersistedSettings(options map[string]string, settings *PersistedSettings) map[string]string {
	out := make(map[string]string, len(options)+2)
	for k, v := range options {
		out[k] = v
	}
	if settings == nil {
		return out
	}

	if v := strings.TrimSpace(settings.APIKey); v != "" {
		delete(out, "apiKey")
		out["api_key"] = v
	}
	if v := strings.TrimSpace(settings.WebhookResponseHash); v != "" {
		delete(out, "webhook_key")
		out["webhook_response_hash"] = v
	}
	return out
}

// Encode returns the JSON blob stored on the payment provider row
func (s PersistedSettings) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode provider settings: %w", err)
	}
	return string(b), nil
}

// Masked returns a copy safe for display
func (s PersistedSettings) Masked() PersistedSettings {
	return PersistedSettings{
		APIKey:              mask(s.APIKey),
		WebhookResponseHash: mask(s.WebhookResponseHash),
	}
}

func mask(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
