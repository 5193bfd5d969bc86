package handler

import (
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
)

// ProviderSource returns the active provider for a request
type ProviderSource interface {
	Current() *hyperswitch.Provider
}
