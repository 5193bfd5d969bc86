package opensearch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LogWebhook(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(context.Background(), &config.AppConfig{OpenSearchURL: server.URL, EnableLogging: true})
	require.NoError(t, err)
	logger := NewLogger(client)

	err = logger.LogWebhook(context.Background(), WebhookLog{
		EventID:    "evt_1",
		EventType:  "payment_succeeded",
		PaymentID:  "pay_1",
		StatusCode: 200,
		Body:       `{"api_key":"snd_secret","payment_id":"pay_1"}`,
	})
	require.NoError(t, err)

	require.Len(t, cluster.docs[WebhookLogIndex], 1)
	var stored WebhookLog
	require.NoError(t, json.Unmarshal(cluster.docs[WebhookLogIndex][0], &stored))
	assert.Equal(t, "evt_1", stored.EventID)
	assert.NotEmpty(t, stored.RequestID)
	assert.False(t, stored.Timestamp.IsZero())
	assert.NotContains(t, stored.Body, "snd_secret")

	logs, err := logger.GetPaymentWebhooks(context.Background(), "pay_1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "payment_succeeded", logs[0].EventType)
}

func TestLogger_LogSystemEvent(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(context.Background(), &config.AppConfig{OpenSearchURL: server.URL, EnableLogging: true})
	require.NoError(t, err)

	require.NoError(t, NewLogger(client).LogSystemEvent(context.Background(), map[string]string{"message": "started"}))
	assert.Len(t, cluster.docs[SystemLogIndex], 1)
}

func TestLogger_Disabled(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(context.Background(), &config.AppConfig{OpenSearchURL: server.URL})
	require.NoError(t, err)
	logger := NewLogger(client)

	require.NoError(t, logger.LogWebhook(context.Background(), WebhookLog{EventID: "evt_1"}))
	assert.Empty(t, cluster.docs)

	_, err = logger.GetFailedWebhooks(context.Background(), 24)
	assert.ErrorIs(t, err, ErrLoggingDisabled)
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{"api key", `{"api_key":"snd_123"}`, `"api_key":"***REDACTED***"`, "snd_123"},
		{"webhook hash", `{"webhook_response_hash": "whsec"}`, `"webhook_response_hash":"***REDACTED***"`, "whsec"},
		{"client secret", `{"client_secret":"pay_1_secret_2","status":"ok"}`, `"status":"ok"`, "pay_1_secret_2"},
		{"untouched", `{"payment_id":"pay_1"}`, `"payment_id":"pay_1"`, "REDACTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeForLog(tt.input)
			assert.Contains(t, out, tt.contains)
			assert.NotContains(t, out, tt.absent)
		})
	}
}
