package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/medusa-hyperswitch/handler"
	"github.com/mstgnz/medusa-hyperswitch/infra/middle"
	"github.com/mstgnz/medusa-hyperswitch/infra/opensearch"
	v1 "github.com/mstgnz/medusa-hyperswitch/router/v1"
)

// WebhookPath is the route Hyperswitch delivers webhooks to
const WebhookPath = "/hyperswitch/hooks"

// Handlers groups the HTTP handlers mounted by Routes
type Handlers struct {
	Webhook  *handler.WebhookHandler
	Settings *handler.SettingsHandler
	Sessions *handler.SessionHandler
	Logs     *handler.LogsHandler
	Health   *handler.HealthHandler
}

// Options configures access control on the mounted routes
type Options struct {
	AdminAPIKey        string
	WebhookIPAllowlist []string
	AuditLog           *opensearch.Logger
	Metrics            http.Handler
}

// Routes mounts the webhook, admin and session routes
func Routes(r chi.Router, h Handlers, opts Options) {
	r.Get("/health", h.Health.CheckHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Vendor webhooks are authenticated by their signature
	r.Route(WebhookPath, func(r chi.Router) {
		r.Use(middle.IPAllowlistMiddleware(opts.WebhookIPAllowlist))
		r.Use(middle.RequestValidationMiddleware)
		r.Use(middle.WebhookAuditMiddleware(opts.AuditLog))

		r.Get("/", h.Webhook.Banner)
		r.Post("/", h.Webhook.Handle)
	})

	r.Route("/admin/hyperswitch", func(r chi.Router) {
		r.Use(middle.AuthMiddleware(opts.AdminAPIKey))
		r.Use(middle.RequestValidationMiddleware)

		r.Get("/settings", h.Settings.Banner)
		r.Post("/settings", h.Settings.Update)
		r.Get("/settings/current", h.Settings.Show)

		r.Get("/webhooks/failed", h.Logs.FailedWebhooks)
		r.Get("/webhooks/payments/{paymentID}", h.Logs.PaymentWebhooks)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.AuthMiddleware(opts.AdminAPIKey))
		r.Use(middle.RequestValidationMiddleware)

		v1.Routes(r, h.Sessions)
	})
}
