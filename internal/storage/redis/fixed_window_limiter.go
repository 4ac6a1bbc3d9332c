package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts hits per key per fixed window. With a 24h
// window the buckets line up with UTC days, which is what the daily
// creation ceiling relies on.
type FixedWindowLimiter struct {
	client goredis.Cmdable
	prefix string
	window time.Duration
	now    func() time.Time
}

func NewFixedWindowLimiter(client goredis.Cmdable, prefix string, window time.Duration) *FixedWindowLimiter {
	if prefix == "" {
		prefix = "rate"
	}
	if window < time.Second {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		window: window,
		now:    time.Now,
	}
}

// Incr increments the counter for (key, current window) and returns the current count.
func (l *FixedWindowLimiter) Incr(ctx context.Context, key string) (int64, error) {
	redisKey := l.bucketKey(key, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// The bucket is part of the key, so the TTL only drives cleanup.
	pipe.Expire(ctx, redisKey, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr %s: %w", l.prefix, err)
	}

	return incr.Val(), nil
}

func (l *FixedWindowLimiter) bucketKey(key string, at time.Time) string {
	if key == "" {
		key = "unknown"
	}
	windowSeconds := int64(l.window / time.Second)
	bucket := at.UTC().Unix() / windowSeconds
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
}
