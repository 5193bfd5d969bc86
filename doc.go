// Package medusahyperswitch connects a Medusa commerce backend to the
// Hyperswitch payment orchestrator.
//
// # Overview
//
// The service sits between Medusa and Hyperswitch and owns three flows:
//
//	┌─────────────────┐    ┌─────────────────────┐    ┌─────────────────┐
//	│                 │    │                     │    │                 │
//	│     Medusa      │◄──►│  medusa-hyperswitch │◄──►│   Hyperswitch   │
//	│   (platform)    │    │                     │    │    (vendor)     │
//	│                 │    │                     │    │                 │
//	└─────────────────┘    └─────────────────────┘    └─────────────────┘
//
//   - Payment sessions: Medusa opens, updates, authorizes, captures, cancels and
//     refunds payments through /v1/sessions (payment module) or
//     /v1/processor/sessions (legacy processor).
//   - Webhooks: Hyperswitch posts signed events to /hyperswitch/hooks. Each
//     body is verified with HMAC-SHA512 before anything else happens.
//   - Reconciliation: a succeeded payment completes the cart and captures the
//     order exactly once, even when the vendor redelivers the event.
//
// # Configuration
//
// Static options come from the environment (HYPERSWITCH_API_KEY,
// HYPERSWITCH_WEBHOOK_KEY, HYPERSWITCH_SANDBOX, HYPERSWITCH_CAPTURE_METHOD,
// HYPERSWITCH_SUCCEEDED_STATUS and friends). Credentials saved from the admin
// UI on /admin/hyperswitch/settings are persisted on the payment provider row
// and override the environment.
//
//	APP_PORT=9000
//	DB_DRIVER=sqlite3            # or postgres with DATABASE_URL
//	MEDUSA_URL=http://localhost:9000
//	MEDUSA_API_TOKEN=...
//	API_KEY=...                  # bearer token for /admin and /v1
//
// # Observability
//
// Structured logs go to the console and, with ENABLE_OPENSEARCH_LOGGING, to
// OpenSearch together with an audit log of every webhook delivery. Prometheus
// metrics are served on /metrics and spans are exported to stdout with
// ENABLE_TRACING.
//
// # Operations
//
// The hsctl command stores credentials and signs or replays webhook payloads:
//
//	hsctl settings set --api-key snd_... --webhook-key whsec_...
//	hsctl webhook send event.json --url http://localhost:9000/hyperswitch/hooks
package medusahyperswitch
