// file: handler/rate_limit_middleware_test.go

package handler

import (
	"go-recruit-auth/config"
	"go-recruit-auth/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "CDN header wins over everything",
			headers:    map[string]string{"CF-Connecting-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8", "X-Real-IP": "9.9.9.9"},
			remoteAddr: "10.0.0.1:5000",
			want:       "1.2.3.4",
		},
		{
			name:       "first forwarded-for hop",
			headers:    map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.2, 10.0.0.3"},
			remoteAddr: "10.0.0.1:5000",
			want:       "5.6.7.8",
		},
		{
			name:       "real-ip fallback",
			headers:    map[string]string{"X-Real-IP": "9.9.9.9"},
			remoteAddr: "10.0.0.1:5000",
			want:       "9.9.9.9",
		},
		{
			name:       "socket address",
			remoteAddr: "10.0.0.1:5000",
			want:       "10.0.0.1",
		},
		{
			name:       "unidentifiable callers share one bucket",
			remoteAddr: "garbage",
			want:       "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			assert.Equal(t, tt.want, ClientIdentity(req))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	config.AppConfig.RateLimits = map[string]config.LimiterPreset{
		"auth": {MaxRequests: 2, WindowMs: 60000},
	}
	limiter := service.NewRateLimiter(service.NewMemoryRateCounterStore())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RateLimitMiddleware(limiter, "auth")(next)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "1.2.3.4:5000"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	second := send()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := send()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	// A different client is not affected by the throttled one.
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "5.6.7.8:5000"
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
