package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
)

// limited sends one request through h as user (may be empty) from addr.
func limited(h http.Handler, user, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me/logs/today", http.NoBody)
	if user != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), user))
	}
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	h := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute})(okHandler)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, limited(h, "", "10.0.0.1:1000").Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, limited(h, "", "10.0.0.1:1001").Code)
	assert.Equal(t, http.StatusOK, limited(h, "", "10.0.0.2:1000").Code, "other clients keep their budget")
}

func TestRateLimitByUser_SharesLimitAcrossIPs(t *testing.T) {
	h := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute})(okHandler)

	assert.Equal(t, http.StatusOK, limited(h, "usr_a", "10.1.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, limited(h, "usr_a", "10.1.0.2:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, limited(h, "usr_a", "10.1.0.3:1000").Code)
	assert.Equal(t, http.StatusOK, limited(h, "usr_b", "10.1.0.3:1000").Code)
}

func TestRateLimitByUser_AnonymousFallsBackToIP(t *testing.T) {
	h := middleware.RateLimitByUser(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})(okHandler)

	assert.Equal(t, http.StatusOK, limited(h, "", "192.168.1.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, limited(h, "", "192.168.1.1:2").Code)
	assert.Equal(t, http.StatusOK, limited(h, "", "192.168.1.2:1").Code)
}

func TestRateLimit_ExceededProblem(t *testing.T) {
	h := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})(okHandler),
	)

	limited(h, "", "203.0.113.1:1")
	rec := limited(h, "", "203.0.113.1:1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "Rate limit exceeded")
	assert.Contains(t, body, `"instance":"/v1/me/logs/today"`)
	assert.Contains(t, body, `"traceId":"req_`)
}

func TestRateLimit_RetryAfterFollowsWindow(t *testing.T) {
	h := middleware.RateLimitByIP(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 1500 * time.Millisecond})(okHandler)

	limited(h, "", "198.51.100.7:4000")
	rec := limited(h, "", "198.51.100.7:4000")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	tests := []struct {
		name  string
		cfg   middleware.RateLimitConfig
		limit int
	}{
		{"public", middleware.PublicRateLimit, 60},
		{"standard", middleware.StandardRateLimit, 100},
		{"search", middleware.SearchRateLimit, 30},
		{"admin", middleware.AdminRateLimit, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.limit, tt.cfg.RequestLimit)
			assert.Equal(t, time.Minute, tt.cfg.WindowLength)
		})
	}
}
