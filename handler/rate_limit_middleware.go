// file: handler/rate_limit_middleware.go

package handler

import (
	"fmt"
	"go-recruit-auth/common"
	"go-recruit-auth/logger"
	"go-recruit-auth/service"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ClientIdentity extracts the caller identity used to key rate-limit
// counters. Trusted proxy headers are preferred in order of specificity:
// the CDN header, then the generic forwarded-for chain, then real-ip, then
// the socket address. Callers we cannot identify all share the "unknown"
// bucket, which throttles them collectively rather than not at all.
func ClientIdentity(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// The first entry is the originating client; the rest are proxies.
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

// RateLimitMiddleware throttles requests through the named limiter preset
// before any other processing happens.
func RateLimitMiddleware(limiter *service.RateLimiter, limiterName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Check(r.Context(), ClientIdentity(r), limiterName)

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))
			}

			if !decision.Allowed {
				logger.Log.WithFields(logrus.Fields{
					"limiter": limiterName,
					"reason":  string(decision.Reason),
				}).Warn("Request throttled")
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
				err := common.NewAppError(http.StatusTooManyRequests, "Too many requests", nil)
				err.Send(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
