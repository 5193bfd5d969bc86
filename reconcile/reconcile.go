// Package reconcile turns verified Hyperswitch webhooks into order and cart
// updates on the platform, at most once per event.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/metrics"
	"github.com/mstgnz/medusa-hyperswitch/infra/storage"
	"github.com/mstgnz/medusa-hyperswitch/platform"
	"github.com/mstgnz/medusa-hyperswitch/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RequestPath scopes webhook idempotency records
const RequestPath = storage.WebhookRequestPath

const paymentCollectionPrefix = "paycol"

// RetryPolicy bounds how long an order lookup waits for a concurrent cart completion
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is three attempts two seconds apart
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}

// Result is the outcome of handling one event
type Result struct {
	StatusCode int
	Action     provider.WebhookAction
	Message    string
}

// CompletionError is a non-200 answer from the cart completion strategy
type CompletionError struct {
	Code    string
	Message string
}

func (e *CompletionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("cart completion failed (%s): %s", e.Code, e.Message)
	}
	return "cart completion failed: " + e.Message
}

// Services are the platform collaborators the flow needs
type Services struct {
	Orders             platform.OrderService
	Carts              platform.CartService
	Completer          platform.CartCompleter
	PaymentCollections platform.PaymentCollectionService
	Refunds            platform.RefundUpdater
	Idempotency        platform.IdempotencyStore
}

// Reconciler dispatches webhook events to the platform
type Reconciler struct {
	services Services
	retry    RetryPolicy
	metrics  *metrics.Metrics
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithRetryPolicy overrides the order lookup retry policy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(r *Reconciler) {
		if policy.Attempts > 0 {
			r.retry = policy
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// New creates a reconciler
func New(services Services, opts ...Option) *Reconciler {
	r := &Reconciler{
		services: services,
		retry:    DefaultRetryPolicy,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one verified event and returns the HTTP status to answer with
func (r *Reconciler) Handle(ctx context.Context, event *provider.WebhookEvent) Result {
	ctx, span := otel.Tracer("reconcile").Start(ctx, "reconcile.Handle")
	span.SetAttributes(
		attribute.String("webhook.event_type", event.EventType),
		attribute.String("webhook.event_id", event.EventID),
	)
	started := time.Now()

	result := r.dispatch(ctx, event)

	span.SetAttributes(attribute.Int("webhook.status_code", result.StatusCode))
	if result.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, result.Message)
	}
	span.End()
	r.metrics.ObserveWebhook(event.EventType, string(result.Action), result.StatusCode, time.Since(started))
	return result
}

func (r *Reconciler) dispatch(ctx context.Context, event *provider.WebhookEvent) Result {
	object := event.Content.Object
	log := logger.WithContext(logger.LogContext{
		Provider: "hyperswitch",
		Fields: map[string]any{
			"event_type": event.EventType,
			"event_id":   event.EventID,
			"payment_id": object.PaymentID,
		},
	})

	switch event.EventType {
	case provider.EventPaymentSucceeded:
		log.Info("Webhook event received")
		return r.paymentSucceeded(ctx, event)

	case provider.EventPaymentFailed:
		message := ""
		if object.LastPaymentError != nil {
			message = object.LastPaymentError.Message
		}
		log.Error(fmt.Sprintf("The payment of the payment intent %s has failed\n%s", object.PaymentID, message), nil)
		return Result{StatusCode: http.StatusOK, Action: provider.ActionFailed}

	case provider.EventPaymentAuthorized:
		return Result{StatusCode: http.StatusOK, Action: provider.ActionAuthorized}

	case provider.EventActionRequired:
		return Result{StatusCode: http.StatusOK, Action: provider.ActionRequiresMore}

	case provider.EventRefundSucceeded, provider.EventRefundFailed:
		if r.services.Refunds != nil {
			if err := r.services.Refunds.UpdateRefund(ctx, event); err != nil {
				log.Error("Refund status update failed", err)
			}
		}
		return Result{StatusCode: http.StatusOK, Action: provider.ActionRefund}

	default:
		return Result{StatusCode: http.StatusNoContent, Action: provider.ActionNotSupported}
	}
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, event *provider.WebhookEvent) Result {
	claimed, err := r.services.Idempotency.Claim(ctx, RequestPath, event.EventID)
	if err != nil {
		message := BuildError(event.EventType, err)
		logger.Error("Webhook Error: "+message, err, logger.LogContext{Provider: "hyperswitch"})
		return Result{StatusCode: http.StatusConflict, Action: provider.ActionSuccessful, Message: message}
	}
	if !claimed {
		logger.Info("Webhook event already processed", logger.LogContext{
			Provider: "hyperswitch",
			Fields:   map[string]any{"event_id": event.EventID},
		})
		return Result{StatusCode: http.StatusOK, Action: provider.ActionSuccessful}
	}

	if err := r.onPaymentSucceeded(ctx, event); err != nil {
		// Released so the vendor's redelivery gets another chance.
		if rerr := r.services.Idempotency.Release(context.WithoutCancel(ctx), RequestPath, event.EventID); rerr != nil {
			logger.Error("Failed to release idempotency key", rerr, logger.LogContext{Provider: "hyperswitch"})
		}
		message := BuildError(event.EventType, err)
		logger.Error("Webhook Error: "+message, err, logger.LogContext{Provider: "hyperswitch"})
		return Result{StatusCode: http.StatusConflict, Action: provider.ActionSuccessful, Message: message}
	}

	return Result{StatusCode: http.StatusOK, Action: provider.ActionSuccessful}
}

func (r *Reconciler) onPaymentSucceeded(ctx context.Context, event *provider.WebhookEvent) error {
	object := event.Content.Object
	resourceID := object.ResourceID()

	if IsPaymentCollection(resourceID) {
		return r.capturePaymentCollection(ctx, resourceID, object.PaymentID)
	}

	cartID := object.CartID()
	if cartID == "" {
		return fmt.Errorf("payment %s carries no cart reference", object.PaymentID)
	}

	order, err := r.findOrder(ctx, cartID)
	if err != nil {
		return err
	}

	if order == nil {
		if err := r.completeCart(ctx, event.EventID, cartID); err != nil {
			return err
		}
		order, err = r.lookupOrder(ctx, cartID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order for cart %s: %w", cartID, platform.ErrNotFound)
		}
	}

	logger.Info("Order data found for cart", logger.LogContext{
		Provider: "hyperswitch",
		Fields:   map[string]any{"order_id": order.ID, "cart_id": cartID, "payment_status": order.PaymentStatus},
	})

	if order.PaymentStatus == platform.PaymentStatusCaptured {
		return nil
	}
	if err := r.services.Orders.CapturePayment(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to capture order %s: %w", order.ID, err)
	}
	return nil
}

// findOrder looks the order up, waiting between attempts for a concurrent completion
func (r *Reconciler) findOrder(ctx context.Context, cartID string) (*platform.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := r.lookupOrder(ctx, cartID)
		if err != nil || order != nil || attempt >= r.retry.Attempts {
			return order, err
		}

		r.metrics.IncOrderLookupRetry()
		if err := r.sleep(ctx, r.retry.Backoff); err != nil {
			return nil, err
		}
	}
}

func (r *Reconciler) lookupOrder(ctx context.Context, cartID string) (*platform.Order, error) {
	order, err := r.services.Orders.RetrieveByCartID(ctx, cartID)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order for cart %s: %w", cartID, err)
	}
	return order, nil
}

func (r *Reconciler) completeCart(ctx context.Context, eventID, cartID string) error {
	cart, err := r.services.Carts.Retrieve(ctx, cartID)
	if err != nil {
		return fmt.Errorf("failed to retrieve cart %s: %w", cartID, err)
	}
	if cart.Completed() {
		return nil
	}

	result, err := r.services.Completer.Complete(ctx, cartID, eventID, cart.IP())
	if err != nil {
		return fmt.Errorf("failed to complete cart %s: %w", cartID, err)
	}
	if result.ResponseCode != http.StatusOK {
		return completionError(result)
	}
	return nil
}

func completionError(result *platform.CompletionResult) *CompletionError {
	var body struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(result.ResponseBody, &body)

	ce := &CompletionError{Message: body.Message}
	switch code := body.Code.(type) {
	case string:
		ce.Code = code
	case float64:
		ce.Code = fmt.Sprintf("%.0f", code)
	}
	if ce.Message == "" {
		ce.Message = fmt.Sprintf("cart completion answered %d", result.ResponseCode)
	}
	return ce
}

func (r *Reconciler) capturePaymentCollection(ctx context.Context, collectionID, paymentID string) error {
	collection, err := r.services.PaymentCollections.Retrieve(ctx, collectionID)
	if err != nil {
		logger.Warn(fmt.Sprintf("Payment collection %s not found: %v", collectionID, err))
		return nil
	}

	for _, payment := range collection.Payments {
		if payment.DataID() != paymentID {
			continue
		}
		if payment.CapturedAt != nil {
			return nil
		}
		if err := r.services.PaymentCollections.CapturePayment(ctx, payment.ID); err != nil {
			return fmt.Errorf("failed to capture payment %s: %w", payment.ID, err)
		}
		return nil
	}

	logger.Warn(fmt.Sprintf("No payment for %s in payment collection %s", paymentID, collectionID))
	return nil
}

// IsPaymentCollection reports whether a resource id names a payment collection
func IsPaymentCollection(resourceID string) bool {
	return strings.HasPrefix(resourceID, paymentCollectionPrefix)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
