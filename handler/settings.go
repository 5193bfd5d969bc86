package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/infra/logger"
	"github.com/mstgnz/medusa-hyperswitch/infra/middle"
	"github.com/mstgnz/medusa-hyperswitch/infra/response"
	"github.com/mstgnz/medusa-hyperswitch/infra/storage"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
)

// SettingsBanner is answered to GET requests on the settings route
const SettingsBanner = "Hyperswitch Settings Service"

// SettingsStore persists the settings blob of the provider row
type SettingsStore interface {
	LoadProviderSettings(ctx context.Context, providerID string) (string, error)
	SaveProviderSettings(ctx context.Context, providerID, settings string) error
}

// ProviderBuilder builds a provider from persisted settings and activates it
type ProviderBuilder interface {
	Build(persisted *config.PersistedSettings) (*hyperswitch.Provider, error)
	Swap(p *hyperswitch.Provider)
}

// SettingsHandler stores the credentials entered in the admin UI
type SettingsHandler struct {
	store     SettingsStore
	providers ProviderBuilder
	validate  *validator.Validate
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsStore, providers ProviderBuilder, validate *validator.Validate) *SettingsHandler {
	return &SettingsHandler{
		store:     store,
		providers: providers,
		validate:  validate,
	}
}

// Banner answers GET on the settings route
func (h *SettingsHandler) Banner(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, SettingsBanner)
}

// Update validates, stores and activates new credentials. The active provider
// only changes once the settings are persisted.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(logger.LogContext{
		Provider:  hyperswitch.ProviderName,
		RequestID: middle.GetRequestID(r.Context()),
	})

	var settings config.PersistedSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid body", err)
		return
	}
	if err := h.validate.Struct(settings); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid body", err)
		return
	}

	next, err := h.providers.Build(&settings)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid body", err)
		return
	}

	blob, err := settings.Encode()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to update settings", err)
		return
	}
	if err := h.store.SaveProviderSettings(r.Context(), config.ProviderID, blob); err != nil {
		log.Error("Failed to persist provider settings", err)
		response.Error(w, http.StatusInternalServerError, "Failed to update settings", err)
		return
	}

	h.providers.Swap(next)
	log.Info("Provider settings updated")
	response.Success(w, http.StatusOK, "Updated successfully!", nil)
}

// Show returns the stored credentials masked
func (h *SettingsHandler) Show(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.LoadProviderSettings(r.Context(), config.ProviderID)
	if errors.Is(err, storage.ErrSettingsNotFound) {
		response.Error(w, http.StatusNotFound, "Settings not found", err)
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	settings, err := config.ParsePersistedSettings(raw)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	if settings == nil {
		response.Error(w, http.StatusNotFound, "Settings not found", storage.ErrSettingsNotFound)
		return
	}

	response.Success(w, http.StatusOK, "Settings retrieved", settings.Masked())
}
