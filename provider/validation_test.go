package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testFields = []ConfigField{
	{Key: "api_key", Aliases: []string{"apiKey"}, Required: true, Type: "string"},
	{Key: "sandbox", Type: "boolean"},
	{Key: "capture_method", Type: "enum", OneOf: []string{"automatic", "manual"}},
	{Key: "allowed_payment_method_types", Type: "list"},
	{Key: "profile_id", Type: "string", Pattern: `^pro_[A-Za-z0-9]+$`, MaxLength: 64},
}

func TestNormalizeConfig(t *testing.T) {
	conf := NormalizeConfig(map[string]string{"apiKey": "snd_123"}, testFields)
	assert.Equal(t, "snd_123", conf["api_key"])

	conf = NormalizeConfig(map[string]string{"apiKey": "alias", "api_key": "canonical"}, testFields)
	assert.Equal(t, "canonical", conf["api_key"])
}

func TestValidateConfigFields(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]string
		wantErr string
	}{
		{"valid minimal", map[string]string{"api_key": "k"}, ""},
		{"missing required", map[string]string{}, "required field 'api_key' is missing"},
		{"empty required", map[string]string{"api_key": "  "}, "cannot be empty"},
		{"bad boolean", map[string]string{"api_key": "k", "sandbox": "yes"}, "must be 'true' or 'false'"},
		{"bad enum", map[string]string{"api_key": "k", "capture_method": "later"}, "must be one of"},
		{"bad list", map[string]string{"api_key": "k", "allowed_payment_method_types": " , "}, "at least one value"},
		{"bad pattern", map[string]string{"api_key": "k", "profile_id": "profile"}, "does not match"},
		{"valid full", map[string]string{
			"api_key": "k", "sandbox": "true", "capture_method": "manual",
			"allowed_payment_method_types": "credit,debit", "profile_id": "pro_abc",
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigFields("hyperswitch", tt.config, testFields)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"credit", "debit", "upi_intent"}, SplitList("credit, debit ,upi_intent,"))
	assert.Nil(t, SplitList(""))
}
