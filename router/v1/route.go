package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/medusa-hyperswitch/handler"
)

// Routes registers the session lifecycle routes the host platform calls
func Routes(r chi.Router, sessions *handler.SessionHandler) {
	// Payment module binding
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/webhook-action", sessions.WebhookAction)
		r.Post("/{operation}", sessions.Module)
	})

	// Legacy payment processor binding
	r.Route("/processor/sessions", func(r chi.Router) {
		r.Post("/{operation}", sessions.Processor)
	})
}
