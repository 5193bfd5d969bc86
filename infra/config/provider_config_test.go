package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProviderOptions(t *testing.T) {
	t.Setenv("HYPERSWITCH_API_KEY", "snd_key")
	t.Setenv("HYPERSWITCH_SANDBOX", "true")
	t.Setenv("HYPERSWITCH_WEBHOOK_KEY", "whsec")
	t.Setenv("HYPERSWITCH_PROFILE_ID", "  ")

	options := LoadProviderOptions()
	assert.Equal(t, "snd_key", options["api_key"])
	assert.Equal(t, "true", options["sandbox"])
	assert.Equal(t, "whsec", options["webhook_response_hash"])
	assert.NotContains(t, options, "profile_id")
}

func TestParsePersistedSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *PersistedSettings
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"null", "null", nil, false},
		{"object", `{"api_key":"k","webhook_response_hash":"h"}`, &PersistedSettings{APIKey: "k", WebhookResponseHash: "h"}, false},
		{"double encoded", `"{\"api_key\":\"k\",\"webhook_response_hash\":\"h\"}"`, &PersistedSettings{APIKey: "k", WebhookResponseHash: "h"}, false},
		{"garbage", `{not json`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePersistedSettings(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyPersistedSettings(t *testing.T) {
	static := map[string]string{"apiKey": "static_key", "webhook_key": "static_hash", "sandbox": "true"}

	merged := ApplyPersistedSettings(static, &PersistedSettings{APIKey: "db_key"})
	assert.Equal(t, "db_key", merged["api_key"])
	assert.NotContains(t, merged, "apiKey")
	assert.Equal(t, "static_hash", merged["webhook_key"])
	assert.Equal(t, "true", merged["sandbox"])
	assert.Equal(t, "static_key", static["apiKey"], "input must not be modified")

	assert.Equal(t, static, ApplyPersistedSettings(static, nil))
}

func TestPersistedSettings_EncodeAndMask(t *testing.T) {
	s := PersistedSettings{APIKey: "snd_1234567890", WebhookResponseHash: "short"}

	encoded, err := s.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"api_key":"snd_1234567890","webhook_response_hash":"short"}`, encoded)

	masked := s.Masked()
	assert.Equal(t, "snd_******7890", masked.APIKey)
	assert.Equal(t, "*****", masked.WebhookResponseHash)
}
