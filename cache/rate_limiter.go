package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	// Allow 判断key对应的请求是否允许通过
	Allow(ctx context.Context, key string) (bool, error)
}

// 令牌桶算法的Lua脚本, timestamps in milliseconds
var tokenBucketScript = redis.NewScript(`
local tokens_key = KEYS[1] .. ":tokens"
local timestamp_key = KEYS[1] .. ":ts"
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local tokens = tonumber(redis.call("get", tokens_key) or burst)
local last_update = tonumber(redis.call("get", timestamp_key) or 0)

-- 计算距离上次更新经过的时间，添加相应的令牌
local elapsed = math.max(0, now - last_update)
local new_tokens = math.min(burst, tokens + elapsed * rate)

if new_tokens < 1 then
	return 0
end

new_tokens = new_tokens - 1
redis.call("psetex", tokens_key, ttl, new_tokens)
redis.call("psetex", timestamp_key, ttl, now)
return 1
`)

// TokenBucketRateLimiter 令牌桶限流器实现, shared by every instance through Redis
type TokenBucketRateLimiter struct {
	client RedisClient
	prefix string
	perMs  float64 // tokens added per millisecond
	burst  int
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenBucketRateLimiter allows requests per window for each key
func NewTokenBucketRateLimiter(client RedisClient, prefix string, requests int, window time.Duration) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		client: client,
		prefix: fmt.Sprintf("rate_limit:%s", prefix),
		perMs:  float64(requests) / float64(window.Milliseconds()),
		burst:  requests,
		ttl:    2 * window,
		now:    time.Now,
	}
}

// Allow 判断请求是否允许通过
func (l *TokenBucketRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.client == nil {
		return false, ErrRedisNotAvailable
	}
	res, err := tokenBucketScript.Run(ctx, l.client,
		[]string{l.prefix + ":" + key},
		l.now().UnixMilli(), l.perMs, l.burst, l.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// LocalRateLimiter keeps one token bucket per key in memory
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLocalRateLimiter allows requests per window for each key
func NewLocalRateLimiter(requests int, window time.Duration) *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow(), nil
}

// FallbackRateLimiter asks the primary limiter and falls back to the
// secondary one when the primary fails
type FallbackRateLimiter struct {
	Primary   RateLimiter
	Secondary RateLimiter
}

func (l FallbackRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := l.Primary.Allow(ctx, key)
	if err == nil {
		return allowed, nil
	}
	return l.Secondary.Allow(ctx, key)
}
