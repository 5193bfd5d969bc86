package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("test-api-key")(okHandler())

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Valid API key", "Bearer test-api-key", http.StatusOK},
		{"Invalid API key", "Bearer wrong-key", http.StatusUnauthorized},
		{"Missing Authorization header", "", http.StatusUnauthorized},
		{"Invalid format", "Basic test-api-key", http.StatusUnauthorized},
		{"Empty Bearer token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/hyperswitch/settings", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	handler := AuthMiddleware("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   time.Second,
	}

	assert.True(t, rl.Allow("192.168.1.1"))
	assert.True(t, rl.Allow("192.168.1.1"))
	assert.False(t, rl.Allow("192.168.1.1"))
	assert.True(t, rl.Allow("192.168.1.2"))

	rl.visitors["192.168.1.1"].lastReset = time.Now().Add(-2 * time.Second)
	assert.True(t, rl.Allow("192.168.1.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	handler := RateLimitMiddleware(rl)(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/hyperswitch/hooks", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/hyperswitch/hooks", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{"X-Forwarded-For single", "203.0.113.1", "", "10.0.0.1:1234", "203.0.113.1"},
		{"X-Forwarded-For chain", "203.0.113.1, 10.0.0.2", "", "10.0.0.1:1234", "203.0.113.1"},
		{"X-Real-IP", "", "198.51.100.7", "10.0.0.1:1234", "198.51.100.7"},
		{"RemoteAddr", "", "", "192.0.2.10:5555", "192.0.2.10"},
		{"IPv6 localhost", "", "", "[::1]:8080", "127.0.0.1"},
		{"no port", "", "", "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestIPAllowlistMiddleware(t *testing.T) {
	handler := IPAllowlistMiddleware([]string{" 203.0.113.1 ", ""})(okHandler())

	allowed := httptest.NewRequest(http.MethodPost, "/hyperswitch/hooks", nil)
	allowed.RemoteAddr = "203.0.113.1:443"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, allowed)
	assert.Equal(t, http.StatusOK, rr.Code)

	denied := httptest.NewRequest(http.MethodPost, "/hyperswitch/hooks", nil)
	denied.RemoteAddr = "198.51.100.1:443"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, denied)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	open := IPAllowlistMiddleware(nil)(okHandler())
	rr = httptest.NewRecorder()
	open.ServeHTTP(rr, denied)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware(okHandler())

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		expected    int
	}{
		{"json post", http.MethodPost, "application/json", `{}`, http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", "a=b", http.StatusUnsupportedMediaType},
		{"get without body", http.MethodGet, "", "", http.StatusOK},
		{"too large", http.MethodPost, "application/json", strings.Repeat("a", maxBodyBytes+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/sessions/initiate", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}
