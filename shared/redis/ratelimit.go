package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// WindowCounter counts hits per key in fixed windows.
type WindowCounter struct {
	client *goredis.Client
	prefix string
}

func NewWindowCounter(client *goredis.Client, prefix string) *WindowCounter {
	return &WindowCounter{client: client, prefix: prefix}
}

// Hit increments the counter for key in the current window and returns the
// new count. The first hit of a window sets its expiry.
func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	bucket := time.Now().UnixNano() / int64(window)
	redisKey := fmt.Sprintf("%s%s:%d", w.prefix, key, bucket)

	count, err := w.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := w.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set expiry on %s: %w", redisKey, err)
		}
	}
	return count, nil
}
