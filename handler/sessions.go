package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/middle"
	"github.com/mstgnz/medusa-hyperswitch/infra/response"
	"github.com/mstgnz/medusa-hyperswitch/platform"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
)

// Session operations accepted in the {operation} route parameter
const (
	OpInitiate   = "initiate"
	OpUpdate     = "update"
	OpUpdateData = "update-data"
	OpAuthorize  = "authorize"
	OpCapture    = "capture"
	OpCancel     = "cancel"
	OpDelete     = "delete"
	OpRefund     = "refund"
	OpRetrieve   = "retrieve"
	OpStatus     = "status"
)

const sessionTimeout = 60 * time.Second

var errUnknownOperation = errors.New("unknown session operation")

// sessionRequest is the body of the operations working on existing session data
type sessionRequest struct {
	Data   provider.SessionData `json:"data"`
	Amount float64              `json:"amount,omitempty"`
}

// updateDataRequest is the body of the processor update-data operation
type updateDataRequest struct {
	SessionID string         `json:"session_id" validate:"required"`
	Data      map[string]any `json:"data"`
}

// webhookActionRequest carries a raw webhook forwarded by the module host
type webhookActionRequest struct {
	Data    json.RawMessage   `json:"data" validate:"required"`
	Headers map[string]string `json:"headers"`
}

// SessionHandler exposes the payment session lifecycle to the host platform
type SessionHandler struct {
	providers ProviderSource
	customers platform.CustomerUpdater
	refunds   platform.RefundUpdater
	validate  *validator.Validate
}

// NewSessionHandler creates a new session handler; customers and refunds may be nil
func NewSessionHandler(providers ProviderSource, customers platform.CustomerUpdater, refunds platform.RefundUpdater, validate *validator.Validate) *SessionHandler {
	return &SessionHandler{
		providers: providers,
		customers: customers,
		refunds:   refunds,
		validate:  validate,
	}
}

// Module runs an operation through the payment module binding
func (h *SessionHandler) Module(w http.ResponseWriter, r *http.Request) {
	binding := hyperswitch.NewModule(h.providers.Current(), h.customers, h.refunds)
	h.serve(w, r, binding, nil)
}

// Processor runs an operation through the legacy processor binding
func (h *SessionHandler) Processor(w http.ResponseWriter, r *http.Request) {
	binding := hyperswitch.NewProcessor(h.providers.Current())
	h.serve(w, r, binding, binding)
}

// WebhookAction maps a forwarded webhook to the action the module host applies
func (h *SessionHandler) WebhookAction(w http.ResponseWriter, r *http.Request) {
	var req webhookActionRequest
	if err := h.decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	module := hyperswitch.NewModule(h.providers.Current(), h.customers, h.refunds)
	result := module.GetWebhookActionAndData(r.Context(), hyperswitch.WebhookPayload{
		Data:    req.Data,
		Headers: req.Headers,
	})
	_ = response.WriteJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) serve(w http.ResponseWriter, r *http.Request, binding provider.SessionBinding, processor *hyperswitch.Processor) {
	operation := chi.URLParam(r, "operation")

	ctx, cancel := context.WithTimeout(r.Context(), sessionTimeout)
	defer cancel()

	var (
		result provider.Result
		err    error
	)
	if operation == OpUpdateData && processor != nil {
		result, err = h.updateData(ctx, r, processor)
	} else {
		result, err = h.dispatch(ctx, r, binding, operation)
	}

	switch {
	case errors.Is(err, errUnknownOperation):
		response.Error(w, http.StatusNotFound, "Unknown operation", err)
		return
	case err != nil:
		response.Error(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	writeResult(w, r, operation, result)
}

func (h *SessionHandler) dispatch(ctx context.Context, r *http.Request, binding provider.SessionBinding, operation string) (provider.Result, error) {
	switch operation {
	case OpInitiate:
		var input provider.InitiateInput
		if err := h.decode(r, &input); err != nil {
			return provider.Result{}, err
		}
		return binding.InitiatePayment(ctx, input), nil
	case OpUpdate:
		var input provider.UpdateInput
		if err := h.decode(r, &input); err != nil {
			return provider.Result{}, err
		}
		return binding.UpdatePayment(ctx, input), nil
	case OpAuthorize, OpCapture, OpCancel, OpDelete, OpRefund, OpRetrieve, OpStatus:
	default:
		return provider.Result{}, fmt.Errorf("%w: %q", errUnknownOperation, operation)
	}

	var req sessionRequest
	if err := h.decode(r, &req); err != nil {
		return provider.Result{}, err
	}

	switch operation {
	case OpAuthorize:
		return binding.AuthorizePayment(ctx, req.Data), nil
	case OpCapture:
		return binding.CapturePayment(ctx, req.Data), nil
	case OpCancel:
		return binding.CancelPayment(ctx, req.Data), nil
	case OpDelete:
		return binding.DeletePayment(ctx, req.Data), nil
	case OpRefund:
		if req.Amount <= 0 {
			return provider.Result{}, errors.New("refund amount must be greater than zero")
		}
		return binding.RefundPayment(ctx, req.Data, req.Amount), nil
	case OpRetrieve:
		return binding.RetrievePayment(ctx, req.Data), nil
	default:
		return binding.GetPaymentStatus(ctx, req.Data), nil
	}
}

func (h *SessionHandler) updateData(ctx context.Context, r *http.Request, processor *hyperswitch.Processor) (provider.Result, error) {
	var req updateDataRequest
	if err := h.decode(r, &req); err != nil {
		return provider.Result{}, err
	}
	return processor.UpdatePaymentData(ctx, req.SessionID, req.Data), nil
}

// decode reads a JSON body into v and validates it
func (h *SessionHandler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	if h.validate == nil {
		return nil
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func writeResult(w http.ResponseWriter, r *http.Request, operation string, result provider.Result) {
	if result.Failed() {
		status := http.StatusUnprocessableEntity
		if errors.Is(result.Err(), provider.ErrNotImplemented) {
			status = http.StatusNotImplemented
		}
		logger.Warn("Session operation failed: "+result.Err().Error(), logger.LogContext{
			Provider:  hyperswitch.ProviderName,
			RequestID: middle.GetRequestID(r.Context()),
			Fields:    map[string]any{"operation": operation},
		})
		_ = response.WriteJSON(w, status, result)
		return
	}

	if result.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	_ = response.WriteJSON(w, http.StatusOK, result)
}
