package hyperswitch

import (
	"testing"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_PersistedOverridesStatic(t *testing.T) {
	base := map[string]string{
		"apiKey":      "snd_static_key",
		"webhook_key": "whsec_static",
		"sandbox":     "true",
	}

	h, err := NewHolder(base, &config.PersistedSettings{APIKey: "snd_persisted_key", WebhookResponseHash: "whsec_persisted"})
	require.NoError(t, err)

	settings := h.Current().Settings()
	assert.Equal(t, "snd_persisted_key", settings.APIKey)
	assert.Equal(t, "whsec_persisted", settings.WebhookSecret)
	assert.True(t, settings.Sandbox)
	assert.Equal(t, "snd_static_key", base["apiKey"], "static options are not mutated")
}

func TestHolder_MissingCredentials(t *testing.T) {
	_, err := NewHolder(map[string]string{"sandbox": "true"}, nil)
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

func TestHolder_BuildAndSwap(t *testing.T) {
	h, err := NewHolder(map[string]string{"api_key": "snd_static_key", "webhook_response_hash": "whsec_static"}, nil)
	require.NoError(t, err)
	before := h.Current()

	next, err := h.Build(&config.PersistedSettings{APIKey: "snd_rotated_key", WebhookResponseHash: "whsec_rotated"})
	require.NoError(t, err)
	assert.Same(t, before, h.Current(), "build does not activate")

	h.Swap(next)
	assert.Equal(t, "snd_rotated_key", h.Current().Settings().APIKey)

	_, err = h.Build(&config.PersistedSettings{APIKey: "short", WebhookResponseHash: "whsec"})
	assert.Error(t, err)
	assert.Equal(t, "snd_rotated_key", h.Current().Settings().APIKey)
}
