package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/IgorGrieder/tempqr/internal/constants"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
	"go.uber.org/zap"
)

const rateLimitTimeout = 200 * time.Millisecond

// WindowCounter counts hits for a key inside the current window.
type WindowCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// RateLimiter enforces a fixed number of requests per client per window.
type RateLimiter struct {
	counter WindowCounter
	limit   int64
}

func NewRateLimiter(counter WindowCounter, limitPerWindow int) *RateLimiter {
	if limitPerWindow <= 0 {
		limitPerWindow = 60
	}
	return &RateLimiter{
		counter: counter,
		limit:   int64(limitPerWindow),
	}
}

// RateLimitMiddleware fails open: when the counter store is unavailable the
// request goes through.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limiter.counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), rateLimitTimeout)
			defer cancel()

			count, err := limiter.counter.Incr(ctx, "ip:"+httputils.ClientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count > limiter.limit {
				w.Header().Set("Retry-After", "60")
				httputils.WriteAPIError(w, r, constants.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
