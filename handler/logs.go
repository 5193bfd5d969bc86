package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/medusa-hyperswitch/infra/opensearch"
	"github.com/mstgnz/medusa-hyperswitch/infra/response"
)

const (
	defaultFailedHours = 24
	maxFailedHours     = 24 * 30
)

// WebhookLogSearcher queries the webhook audit log
type WebhookLogSearcher interface {
	GetPaymentWebhooks(ctx context.Context, paymentID string) ([]opensearch.WebhookLog, error)
	GetFailedWebhooks(ctx context.Context, hours int) ([]opensearch.WebhookLog, error)
}

// LogsHandler handles webhook audit log requests
type LogsHandler struct {
	logs WebhookLogSearcher
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logs WebhookLogSearcher) *LogsHandler {
	return &LogsHandler{
		logs: logs,
	}
}

// PaymentWebhooks lists the deliveries recorded for a vendor payment
func (h *LogsHandler) PaymentWebhooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Payment ID is required", nil)
		return
	}

	logs, err := h.logs.GetPaymentWebhooks(ctx, paymentID)
	if err != nil {
		writeLogError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Webhook logs retrieved", map[string]any{
		"payment_id": paymentID,
		"logs":       logs,
		"count":      len(logs),
	})
}

// FailedWebhooks lists the deliveries answered with an error status
func (h *LogsHandler) FailedWebhooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	hours := defaultFailedHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxFailedHours {
			response.Error(w, http.StatusBadRequest, fmt.Sprintf("hours must be between 1 and %d", maxFailedHours), err)
			return
		}
		hours = parsed
	}

	logs, err := h.logs.GetFailedWebhooks(ctx, hours)
	if err != nil {
		writeLogError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Failed webhooks retrieved", map[string]any{
		"hours": hours,
		"logs":  logs,
		"count": len(logs),
	})
}

func writeLogError(w http.ResponseWriter, err error) {
	if errors.Is(err, opensearch.ErrLoggingDisabled) {
		response.Error(w, http.StatusServiceUnavailable, "Webhook logging is disabled", err)
		return
	}
	response.Error(w, http.StatusInternalServerError, "Failed to retrieve webhook logs", err)
}
