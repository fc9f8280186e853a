package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter shares windows between instances. The window starts with the
// first attempt and expires with the key.
type RedisCounter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisCounter(client *redis.Client, limit int, w time.Duration) *RedisCounter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &RedisCounter{client: client, limit: limit, window: w, prefix: "ratelimit:"}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Allow counts the attempt and sets the window TTL in one MULTI/EXEC. EXPIRE
// NX only sets a TTL on a key that has none, so a half-written window heals
// on the next attempt instead of locking the user out.
func (r *RedisCounter) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	if incr.Val() > int64(r.limit) {
		// Keep the stored value at the limit so denied attempts are not counted.
		if err := r.client.Decr(ctx, k).Err(); err != nil {
			slog.Warn("rate limit decr failed", "key", k, "error", err)
		}
		return false, nil
	}
	return true, nil
}
