package hyperswitch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeVendor is an in-memory Hyperswitch API
type fakeVendor struct {
	t *testing.T

	mu        sync.Mutex
	payments  map[string]map[string]any
	requests  []recordedRequest
	customers int

	failCapture  bool
	failCancel   bool
	failRefund   bool
	failCustomer bool
	// afterCapture, when set, is the status the payment has after a failed capture
	afterCapture string
	afterCancel  string
}

type recordedRequest struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

func newFakeVendor(t *testing.T) (*fakeVendor, *httptest.Server) {
	t.Helper()
	v := &fakeVendor{t: t, payments: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /customers", v.createCustomer)
	mux.HandleFunc("POST /payments", v.createPayment)
	mux.HandleFunc("GET /payments/{id}", v.retrievePayment)
	mux.HandleFunc("POST /payments/{id}", v.updatePayment)
	mux.HandleFunc("POST /payments/{id}/capture", v.capturePayment)
	mux.HandleFunc("POST /payments/{id}/cancel", v.cancelPayment)
	mux.HandleFunc("POST /refunds", v.createRefund)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return v, server
}

func (v *fakeVendor) record(r *http.Request) map[string]any {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	v.mu.Lock()
	v.requests = append(v.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		APIKey: r.Header.Get("api-key"),
		Body:   body,
	})
	v.mu.Unlock()
	return body
}

func (v *fakeVendor) put(id string, fields map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	payment := map[string]any{"payment_id": id, "currency": "USD", "amount": 1000}
	for k, val := range fields {
		payment[k] = val
	}
	v.payments[id] = payment
}

func (v *fakeVendor) calls(method, path string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, r := range v.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (v *fakeVendor) last(method, path string) recordedRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.requests) - 1; i >= 0; i-- {
		if v.requests[i].Method == method && v.requests[i].Path == path {
			return v.requests[i]
		}
	}
	v.t.Fatalf("no %s %s request recorded", method, path)
	return recordedRequest{}
}

func (v *fakeVendor) total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.requests)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func vendorError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"type": "invalid_request", "code": code, "message": message},
	})
}

func (v *fakeVendor) createCustomer(w http.ResponseWriter, r *http.Request) {
	v.record(r)
	if v.failCustomer {
		vendorError(w, http.StatusBadRequest, "IR_05", "customer rejected")
		return
	}
	v.mu.Lock()
	v.customers++
	v.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"customer_id": "hs_cus_new"})
}

func (v *fakeVendor) createPayment(w http.ResponseWriter, r *http.Request) {
	body := v.record(r)
	payment := map[string]any{
		"payment_id":     "pay_new",
		"status":         "requires_payment_method",
		"amount":         body["amount"],
		"currency":       body["currency"],
		"capture_method": body["capture_method"],
		"client_secret":  "pay_new_secret",
		"metadata":       body["metadata"],
		"profile_id":     "pro_1",
	}
	if c, ok := body["customer"].(map[string]any); ok {
		payment["customer_id"] = c["id"]
	}
	v.mu.Lock()
	v.payments["pay_new"] = payment
	v.mu.Unlock()
	writeJSON(w, http.StatusOK, payment)
}

func (v *fakeVendor) find(w http.ResponseWriter, id string) (map[string]any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	payment, ok := v.payments[id]
	if !ok {
		vendorError(w, http.StatusNotFound, "HE_02", "Payment does not exist in our records")
	}
	return payment, ok
}

func (v *fakeVendor) retrievePayment(w http.ResponseWriter, r *http.Request) {
	v.record(r)
	if payment, ok := v.find(w, r.PathValue("id")); ok {
		writeJSON(w, http.StatusOK, payment)
	}
}

func (v *fakeVendor) updatePayment(w http.ResponseWriter, r *http.Request) {
	body := v.record(r)
	payment, ok := v.find(w, r.PathValue("id"))
	if !ok {
		return
	}
	v.mu.Lock()
	payment["amount"] = body["amount"]
	v.mu.Unlock()
	writeJSON(w, http.StatusOK, payment)
}

func (v *fakeVendor) capturePayment(w http.ResponseWriter, r *http.Request) {
	v.record(r)
	payment, ok := v.find(w, r.PathValue("id"))
	if !ok {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failCapture {
		if v.afterCapture != "" {
			payment["status"] = v.afterCapture
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "invalid_request", "code": "IR_14", "message": "payment is not capturable"},
		})
		return
	}
	payment["status"] = "succeeded"
	writeJSON(w, http.StatusOK, payment)
}

func (v *fakeVendor) cancelPayment(w http.ResponseWriter, r *http.Request) {
	v.record(r)
	payment, ok := v.find(w, r.PathValue("id"))
	if !ok {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failCancel {
		if v.afterCancel != "" {
			payment["status"] = v.afterCancel
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "invalid_request", "code": "IR_16", "message": "payment cannot be cancelled"},
		})
		return
	}
	payment["status"] = "canceled"
	writeJSON(w, http.StatusOK, payment)
}

func (v *fakeVendor) createRefund(w http.ResponseWriter, r *http.Request) {
	body := v.record(r)
	if v.failRefund {
		vendorError(w, http.StatusBadRequest, "IR_09", "refund amount exceeds payment amount")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"refund_id":  "ref_1",
		"payment_id": body["payment_id"],
		"amount":     body["amount"],
		"currency":   "USD",
		"status":     "pending",
	})
}

func newTestProvider(t *testing.T, serverURL string, extra map[string]string) *Provider {
	t.Helper()
	conf := map[string]string{
		"api_key":               "snd_test_key_123",
		"webhook_response_hash": "whsec_test",
		"base_url":              serverURL,
	}
	for k, v := range extra {
		conf[k] = v
	}
	p, err := New(conf)
	require.NoError(t, err)
	return p
}
