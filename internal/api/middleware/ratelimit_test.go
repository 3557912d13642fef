package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/airlog/airlog/internal/api/middleware"
	"github.com/airlog/airlog/internal/auth"
)

// hitFrom serves one request from remoteAddr and returns the status code.
func hitFrom(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/v1/stations", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitByIP(t *testing.T) {
	limited := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitFrom(limited, "10.0.0.1:12345"), "request %d should be allowed", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(limited, "10.0.0.1:12345"))

	// Another client has its own budget.
	assert.Equal(t, http.StatusOK, hitFrom(limited, "10.0.0.2:12345"))
}

func TestRateLimitByUser_KeysOnIdentity(t *testing.T) {
	cfg := middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	}
	limited := middleware.RateLimitByUser(cfg)(okHandler())

	serve := func(userID, remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/stations", http.NoBody)
		req.RemoteAddr = remoteAddr
		if userID != "" {
			req = req.WithContext(middleware.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: auth.RoleAdmin}))
		}
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	// Same user across two IPs shares one budget.
	assert.Equal(t, http.StatusOK, serve("usr_a", "192.168.1.1:12345"))
	assert.Equal(t, http.StatusOK, serve("usr_a", "192.168.1.2:12345"))
	assert.Equal(t, http.StatusTooManyRequests, serve("usr_a", "192.168.1.3:12345"))

	// Another user and an anonymous caller are unaffected.
	assert.Equal(t, http.StatusOK, serve("usr_b", "192.168.1.1:12345"))
	assert.Equal(t, http.StatusOK, serve("", "192.168.1.1:12345"))
}

func TestRateLimitExceededResponse_Format(t *testing.T) {
	cfg := middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: time.Minute,
	}

	handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler()))

	testIP := "203.0.113.1:12345"

	// First request succeeds
	req := httptest.NewRequest(http.MethodGet, "/v1/user/login", http.NoBody)
	req.RemoteAddr = testIP
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Second request is rate limited
	req = httptest.NewRequest(http.MethodGet, "/v1/user/login", http.NoBody)
	req.RemoteAddr = testIP
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "Rate limit exceeded")
	assert.Contains(t, body, "/v1/user/login") // instance
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 10, middleware.AuthRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.AuthRateLimit.WindowLength)

	assert.Equal(t, 30, middleware.WriteRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.WriteRateLimit.WindowLength)

	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StandardRateLimit.WindowLength)
}
