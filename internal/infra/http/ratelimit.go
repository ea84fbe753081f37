package http

import (
	"net/http"
	"strconv"
	"time"

	"fraudops/internal/domain"

	"github.com/gin-gonic/gin"
)

// enforceRateLimit applies the fixed-window limiter to write-heavy routes.
// Limiter backend failures fail open unless RATE_LIMIT_FAIL_CLOSED is set.
func (s *Server) enforceRateLimit(c *gin.Context) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	window := s.rateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	decision, err := s.rateLimiter.Allow(c.Request.Context(), rateLimitKey(c), s.rateLimitRequests, window)
	if err != nil {
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		retryAfter := time.Until(decision.ResetAt)
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
	}
}
