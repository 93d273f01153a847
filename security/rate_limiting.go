package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles lock acquisition per caller with a fixed Redis
// window. Lock attempts are cheap to issue and expensive to let through
// unchecked, a single bot holding every evening slot is the attack this
// blunts.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow counts one attempt for identity and reports whether it is still
// inside the window's budget. On Redis failure it fails open; availability
// of the booking path wins over throttling precision.
func (rl *RateLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	// nil client means the deployment runs the in-memory lock backend with
	// no Redis at all; throttling is disabled there.
	if rl.redis == nil {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:lock:%s", identity)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return true, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			slog.Warn("failed to set rate limit window", "error", err, "key", key)
		}
	}

	if count > int64(rl.limit) {
		slog.Info("rate limit exceeded",
			"identity", identity,
			"count", count,
			"limit", rl.limit,
		)
		return false, nil
	}
	return true, nil
}
