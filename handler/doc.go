// Package handler provides the HTTP handlers of the Hyperswitch service.
//
// # Webhooks
//
// WebhookHandler receives Hyperswitch notifications on /hyperswitch/hooks. The
// raw body is verified against the x-webhook-signature-512 header before the
// event reaches the reconciler; a bad signature is answered with 400 and no
// platform call is made.
//
//	webhookHandler := handler.NewWebhookHandler(holder, reconciler)
//	r.Post("/hyperswitch/hooks", webhookHandler.Handle)
//
// # Sessions
//
// SessionHandler exposes the payment session lifecycle to the host platform.
// /v1/sessions/{operation} answers in the payment module shape and
// /v1/processor/sessions/{operation} in the legacy processor shape. A failed
// operation is answered with 422 and the error body, an empty result with 204.
//
// # Settings
//
// SettingsHandler persists the credentials entered in the admin UI and swaps
// the active provider once they are stored.
package handler
