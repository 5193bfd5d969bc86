// Package provider defines the payment session lifecycle shared by the host
// bindings and the vendor implementation.
//
// # Core Concepts
//
//   - PaymentProvider: the lifecycle a vendor implements (initiate, update,
//     authorize, capture, cancel, delete, refund, retrieve, status)
//   - SessionData: the vendor payment snapshot stored on the platform session;
//     unknown vendor fields survive a round trip
//   - SessionBinding: the host-facing shape of the lifecycle, answering with a
//     Result that is a body, a PaymentError or empty
//   - WebhookEvent: a verified vendor notification
//
// # Registration
//
// Vendors register a factory with the default registry from an init function:
//
//	func init() {
//	    provider.Register("hyperswitch", NewProvider)
//	}
//
//	p, err := provider.CreateProvider("hyperswitch", map[string]string{
//	    "api_key":               "snd_...",
//	    "webhook_response_hash": "whsec_...",
//	})
//
// Options are checked against the provider's ConfigField list before the
// factory runs; see ValidateConfigFields.
//
// # Amounts
//
// Platform amounts are in major units and vendor amounts in the currency's
// smallest unit. SmallestUnit and AmountFromSmallestUnit convert between them,
// honoring zero and three decimal currencies.
//
// # Status Mapping
//
// MapIntentStatus maps a vendor status to a SessionStatus. A succeeded payment
// maps to authorized or captured depending on the SucceededPolicy.
package provider
