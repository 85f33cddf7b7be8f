package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/metrics"
	"github.com/splitrail/splitrail-web/internal/ratelimit"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

// RateLimit throttles requests per user, or per client address when the
// request is anonymous. It must run after the auth middleware.
func RateLimit(limiter ratelimit.Limiter, scope string) drift.HandlerFunc {
	return func(c *drift.Context) {
		key := scope + ":" + clientKey(c)

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Error("rate limit check failed", "scope", scope, "error", err)
			abort(c, http.StatusInternalServerError, "rate limit check failed")
			return
		}

		h := c.Response.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			retry := time.Until(decision.ResetAt)
			if retry < time.Second {
				retry = time.Second
			}
			h.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			_ = c.JSON(http.StatusTooManyRequests, dto.Fail("Rate limit exceeded. Try again later."))
			c.Abort()
			return
		}

		c.Next()
	}
}

func clientKey(c *drift.Context) string {
	if id := GetUserID(c); id != uuid.Nil {
		return "user:" + id.String()
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return "ip:" + host
}
