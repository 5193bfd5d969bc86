package middle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/opensearch"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
	// WebhookActionHeader is set by the webhook handler to the action it took
	WebhookActionHeader = "X-Webhook-Action"
)

// GetRequestID returns the request id stored by RequestIDMiddleware
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware assigns each request an id, keeping one sent by the caller
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

// responseWriter wraps http.ResponseWriter to capture response data
type responseWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	startTime  time.Time
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		body:           &bytes.Buffer{},
		statusCode:     http.StatusOK,
		startTime:      time.Now(),
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// RequestLoggingMiddleware logs method, path, status and latency of every request
func RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(rw.startTime).Milliseconds(),
			"client_ip":   GetClientIP(r),
		}
		ctx := logger.LogContext{RequestID: GetRequestID(r.Context()), Fields: fields}
		if rw.statusCode >= http.StatusInternalServerError {
			logger.Warn("Request failed", ctx)
			return
		}
		logger.Debug("Request handled", ctx)
	})
}

// webhookEnvelope is the part of a webhook body kept in the audit log
type webhookEnvelope struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Content   struct {
		Object struct {
			PaymentID string `json:"payment_id"`
		} `json:"object"`
	} `json:"content"`
}

// WebhookAuditMiddleware ships every webhook delivery and its answer to OpenSearch
func WebhookAuditMiddleware(auditLog *opensearch.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auditLog == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			entry := buildWebhookLog(r, body, rw)
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := auditLog.LogWebhook(ctx, entry); err != nil {
					logger.Warn("Failed to ship webhook audit log: " + err.Error())
				}
			}()
		})
	}
}

func buildWebhookLog(r *http.Request, body []byte, rw *responseWriter) opensearch.WebhookLog {
	var envelope webhookEnvelope
	_ = json.Unmarshal(body, &envelope)

	entry := opensearch.WebhookLog{
		Timestamp:        rw.startTime.UTC(),
		EventID:          envelope.EventID,
		EventType:        envelope.EventType,
		PaymentID:        envelope.Content.Object.PaymentID,
		RequestID:        GetRequestID(r.Context()),
		ClientIP:         GetClientIP(r),
		StatusCode:       rw.statusCode,
		Action:           rw.Header().Get(WebhookActionHeader),
		ProcessingTimeMs: time.Since(rw.startTime).Milliseconds(),
		Body:             string(body),
	}
	if rw.statusCode >= http.StatusBadRequest {
		entry.Error = rw.body.String()
	}
	return entry
}
