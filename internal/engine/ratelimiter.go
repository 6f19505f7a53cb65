package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SMTPRateKey is the limiter key shared by every newsletter worker, so the
// limit holds across workers and across instances.
const SMTPRateKey = "smtp"

// RateLimiter is a sliding window limiter kept in a Redis sorted set.
// A Lua script atomically drops expired entries, counts, and adds.
type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
	script      *redis.Script
}

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('EXPIRE', key, window / 1000 + 1)
    return 1
else
    return 0
end
`)

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
		script:      slidingWindowScript,
	}
}

func rlKey(key string) string {
	return fmt.Sprintf("rl:%s", key)
}

// Allow reports whether one more send under key fits in the current
// one-second window. A limit of zero or less disables limiting.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int) bool {
	if limit <= 0 {
		return true
	}

	now := time.Now()
	window := int64(1000) // ms
	member := fmt.Sprintf("%d:%d", now.UnixMilli(), now.UnixNano()%10000)

	result, err := rl.script.Run(ctx, rl.redisClient, []string{rlKey(key)},
		now.UnixMilli(), window, limit, member,
	).Int64()
	if err != nil {
		// Fail open.
		rl.logger.Error("rate limiter script failed", "error", err, "key", key)
		return true
	}

	if result == 0 {
		rl.logger.Debug("rate limited", "key", key, "limit", limit)
		return false
	}
	return true
}
