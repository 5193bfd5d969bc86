package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/middle"
	"github.com/mstgnz/medusa-hyperswitch/infra/response"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
	"github.com/mstgnz/medusa-hyperswitch/reconcile"
)

// WebhookBanner is answered to GET requests on the webhook route
const WebhookBanner = "Hyperswitch Webhook Service"

// EventReconciler applies a verified webhook event to the platform
type EventReconciler interface {
	Handle(ctx context.Context, event *provider.WebhookEvent) reconcile.Result
}

// WebhookHandler verifies and dispatches Hyperswitch webhooks
type WebhookHandler struct {
	providers  ProviderSource
	reconciler EventReconciler
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(providers ProviderSource, reconciler EventReconciler) *WebhookHandler {
	return &WebhookHandler{
		providers:  providers,
		reconciler: reconciler,
	}
}

// Handle verifies the signature over the raw body and reconciles the event
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	requestID := middle.GetRequestID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		status := http.StatusInternalServerError
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Error("Failed to read webhook body", err, logger.LogContext{
			Provider:  hyperswitch.ProviderName,
			RequestID: requestID,
		})
		response.Text(w, status, http.StatusText(status))
		return
	}

	event, err := h.providers.Current().ConstructWebhookEvent(body, r.Header.Get(hyperswitch.SignatureHeader))
	if err != nil {
		h.reject(w, requestID, err)
		return
	}

	result := h.reconciler.Handle(r.Context(), event)
	w.Header().Set(middle.WebhookActionHeader, string(result.Action))

	switch result.StatusCode {
	case http.StatusNoContent:
		w.WriteHeader(http.StatusNoContent)
	case http.StatusOK:
		response.Text(w, http.StatusOK, http.StatusText(http.StatusOK))
	default:
		response.Text(w, result.StatusCode, result.Message)
	}
}

func (h *WebhookHandler) reject(w http.ResponseWriter, requestID string, err error) {
	logger.Warn("Webhook rejected: "+err.Error(), logger.LogContext{
		Provider:  hyperswitch.ProviderName,
		RequestID: requestID,
		Fields:    map[string]any{"bad_signature": errors.Is(err, hyperswitch.ErrInvalidSignature)},
	})
	response.Text(w, http.StatusBadRequest, "Webhook Error: "+err.Error())
}

// Banner answers GET on the webhook route
func (h *WebhookHandler) Banner(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, WebhookBanner)
}
