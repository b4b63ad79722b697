package middleware

import (
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/utils"
)

// RateLimiter is a global token bucket in front of case submission
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{logger: logger}
	if rps > 0 {
		rl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return rl
}

// Limit rejects requests with 429 once the bucket is empty
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if rl.limiter == nil {
		return next
	}

	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(rl.limiter.Limit()))))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.Warn("rate limit exceeded",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", retryAfter)
			_ = utils.WriteTooManyRequests(w, services.ErrRateLimitExceeded.Message, map[string]interface{}{
				"limit_rps": float64(rl.limiter.Limit()),
				"burst":     rl.limiter.Burst(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
