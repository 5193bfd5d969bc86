package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// ErrLoggingDisabled is returned by searches when OpenSearch logging is off
var ErrLoggingDisabled = errors.New("logging is disabled")

// WebhookLog is one handled webhook delivery
type WebhookLog struct {
	Timestamp        time.Time `json:"timestamp"`
	EventID          string    `json:"event_id,omitempty"`
	EventType        string    `json:"event_type,omitempty"`
	PaymentID        string    `json:"payment_id,omitempty"`
	RequestID        string    `json:"request_id"`
	ClientIP         string    `json:"client_ip,omitempty"`
	StatusCode       int       `json:"status_code"`
	Action           string    `json:"action,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Body             string    `json:"body,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogWebhook indexes a webhook delivery
func (l *Logger) LogWebhook(ctx context.Context, log WebhookLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}
	log.Body = SanitizeForLog(log.Body)

	return l.index(ctx, WebhookLogIndex, log)
}

// LogSystemEvent indexes a system log entry
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, SystemLogIndex, log)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}
	return nil
}

// SearchWebhookLogs returns the most recent webhook logs matching query
func (l *Logger) SearchWebhookLogs(ctx context.Context, query map[string]any) ([]WebhookLog, error) {
	if !l.client.IsEnabled() {
		return nil, ErrLoggingDisabled
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{WebhookLogIndex},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source WebhookLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]WebhookLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}
	return logs, nil
}

// GetPaymentWebhooks returns the webhook deliveries for a vendor payment
func (l *Logger) GetPaymentWebhooks(ctx context.Context, paymentID string) ([]WebhookLog, error) {
	return l.SearchWebhookLogs(ctx, map[string]any{
		"term": map[string]any{"payment_id": paymentID},
	})
}

// GetFailedWebhooks returns deliveries answered with an error status in the last hours
func (l *Logger) GetFailedWebhooks(ctx context.Context, hours int) ([]WebhookLog, error) {
	return l.SearchWebhookLogs(ctx, map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{"range": map[string]any{"timestamp": map[string]any{"gte": fmt.Sprintf("now-%dh", hours)}}},
				{"range": map[string]any{"status_code": map[string]any{"gte": 400}}},
			},
		},
	})
}

var sensitivePatterns = func() []*regexp.Regexp {
	fields := []string{
		"api_key", "apiKey", "api-key", "webhook_response_hash", "webhook_key",
		"client_secret", "card_number", "card_cvc", "password", "token", "authorization",
	}
	patterns := make([]*regexp.Regexp, 0, len(fields))
	for _, field := range fields {
		patterns = append(patterns, regexp.MustCompile(`"`+regexp.QuoteMeta(field)+`"\s*:\s*"[^"]*"`))
	}
	return patterns
}()

// SanitizeForLog redacts credentials and card data from a JSON payload
func SanitizeForLog(data string) string {
	for _, re := range sensitivePatterns {
		data = re.ReplaceAllStringFunc(data, func(match string) string {
			key := strings.TrimSpace(match[:strings.IndexByte(match, ':')])
			return key + `:"***REDACTED***"`
		})
	}
	return data
}
