package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter backed by Redis sorted sets.
// A limit of zero disables it.
type RateLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (rl *RateLimiter) Window() time.Duration { return rl.window }

// Allow records a hit for key and reports whether it is within the limit.
// Redis errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	ok, err := rl.allow(ctx, rl.prefix+key)
	if err != nil {
		slog.Warn("rate limiter: redis error, failing open", "error", err, "key", key)
		return true
	}
	return ok
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := float64(now.Add(-rl.window).UnixMilli())
	member := fmt.Sprintf("%d", now.UnixNano())
	score := float64(now.UnixMilli())

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	pipe.Expire(ctx, key, rl.window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return countCmd.Val() < int64(rl.limit), nil
}
