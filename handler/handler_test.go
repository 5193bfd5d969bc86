package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "snd_handler_test_key"
	testWebhookSecret = "whsec_handler_test"
)

// vendorStub answers the Hyperswitch endpoints the session handler reaches
type vendorStub struct {
	mu       sync.Mutex
	payments map[string]map[string]any
	paths    []string
}

func newVendorStub(t *testing.T) (*vendorStub, *httptest.Server) {
	t.Helper()
	v := &vendorStub{payments: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		payment := map[string]any{
			"payment_id":    "pay_handler",
			"status":        "requires_payment_method",
			"amount":        body["amount"],
			"currency":      body["currency"],
			"client_secret": "pay_handler_secret",
		}
		v.store(r, "pay_handler", payment)
		stubJSON(w, http.StatusOK, payment)
	})
	mux.HandleFunc("GET /payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		v.track(r)
		v.mu.Lock()
		payment, ok := v.payments[r.PathValue("id")]
		v.mu.Unlock()
		if !ok {
			stubJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]string{"type": "invalid_request", "code": "HE_02", "message": "Payment does not exist in our records"},
			})
			return
		}
		stubJSON(w, http.StatusOK, payment)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return v, server
}

func (v *vendorStub) track(r *http.Request) {
	v.mu.Lock()
	v.paths = append(v.paths, r.Method+" "+r.URL.Path)
	v.mu.Unlock()
}

func (v *vendorStub) store(r *http.Request, id string, payment map[string]any) {
	v.track(r)
	v.mu.Lock()
	v.payments[id] = payment
	v.mu.Unlock()
}

func (v *vendorStub) put(id string, payment map[string]any) {
	v.mu.Lock()
	v.payments[id] = payment
	v.mu.Unlock()
}

func stubJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestHolder(t *testing.T, baseURL string) *hyperswitch.Holder {
	t.Helper()
	conf := map[string]string{
		"api_key":               testAPIKey,
		"webhook_response_hash": testWebhookSecret,
		"sandbox":               "true",
	}
	if baseURL != "" {
		conf["base_url"] = baseURL
	}
	holder, err := hyperswitch.NewHolder(conf, nil)
	require.NoError(t, err)
	return holder
}

// withURLParam attaches a chi route parameter to the request
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(contextWithRoute(r, rctx))
}

func contextWithRoute(r *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}
