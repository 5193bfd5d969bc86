package hyperswitch

import (
	"fmt"
	"maps"
	"sync/atomic"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/provider"
)

// Holder keeps the active provider. Static options come from the environment;
// credentials saved through the settings endpoint override them.
type Holder struct {
	base    map[string]string
	current atomic.Pointer[Provider]
}

// NewHolder builds the provider from static options and the persisted override
func NewHolder(base map[string]string, persisted *config.PersistedSettings) (*Holder, error) {
	h := &Holder{base: maps.Clone(base)}
	p, err := h.Build(persisted)
	if err != nil {
		return nil, err
	}
	h.current.Store(p)
	return h, nil
}

// Current returns the active provider
func (h *Holder) Current() *Provider {
	return h.current.Load()
}

// Build creates a provider from the static options overlaid with persisted
// credentials without activating it
func (h *Holder) Build(persisted *config.PersistedSettings) (*Provider, error) {
	conf := config.ApplyPersistedSettings(h.base, persisted)

	created, err := provider.CreateProvider(ProviderName, conf)
	if err != nil {
		return nil, err
	}
	p, ok := created.(*Provider)
	if !ok {
		return nil, fmt.Errorf("provider %s has unexpected type %T", ProviderName, created)
	}
	return p, nil
}

// Swap activates p for subsequent requests
func (h *Holder) Swap(p *Provider) {
	h.current.Store(p)
}
