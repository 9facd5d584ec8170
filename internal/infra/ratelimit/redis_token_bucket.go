package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

var tokenBucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])
	if currentTokens == nil or lastRefill == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens, now 單位為毫秒
	local elapsed = math.max(0, now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsed * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`

// RedisTokenBucket 多個實例共用同一個桶
type RedisTokenBucket struct {
	LimiterConfig
	client RedisClient
	prefix string
	now    func() time.Time
}

func NewRedisTokenBucket(client RedisClient, config *LimiterConfig) *RedisTokenBucket {
	rb := &RedisTokenBucket{
		client: client,
		prefix: "ratelimit:",
		now:    time.Now,
	}
	if config != nil {
		rb.LimiterConfig = config.normalize()
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	return rb
}

// Allow redis 出錯時回傳 error，由呼叫端決定放行或拒絕
func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	ttl := int64(math.Ceil(r.fullRefill().Seconds())) + 1
	result, err := r.client.Eval(
		ctx,
		tokenBucketScript,
		[]string{r.prefix + key},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
		ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to eval token bucket: %w", err)
	}
	return result == 1, nil
}

var (
	_ Limiter = (*TokenBucket)(nil)
	_ Limiter = (*RedisTokenBucket)(nil)
)
