package hyperswitch

import "github.com/mstgnz/medusa-hyperswitch/provider"

// Register Hyperswitch provider with the provider registry
func init() {
	provider.Register(ProviderName, NewProvider)
}
