package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

type LimiterConfig struct {
	Capacity int     // bucket 上限，也是初始 tokens
	RatePS   float64 // 每秒補充的 tokens
	// 閒置多久後刪除 bucket
	IdleTTL time.Duration
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity: 20,
		RatePS:   5,
		IdleTTL:  time.Minute,
	}
}

// 以毫秒計算補充量，避免 lua number 精度問題
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if tokens == nil then
		tokens = capacity
		lastRefill = now
	end

	local elapsed = math.max(0, now - lastRefill) / 1000
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', now)
	redis.call('PEXPIRE', key, ttl)
	return allowed
`)

// RedisTokenBucket 多個 instance 共用同一個 bucket
type RedisTokenBucket struct {
	LimiterConfig
	client *redis.Client
	now    func() time.Time
}

func NewRedisTokenBucket(client *redis.Client, config *LimiterConfig) *RedisTokenBucket {
	rb := &RedisTokenBucket{client: client, now: time.Now}
	if config != nil {
		rb.LimiterConfig = *config
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	if rb.IdleTTL <= 0 {
		rb.IdleTTL = time.Minute
	}
	return rb
}

func generateBucketKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}

func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	res, err := tokenBucketScript.Run(ctx, r.client,
		[]string{generateBucketKey(key)},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
		r.IdleTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return false, model.Infra("rate limit", err)
	}
	return res == 1, nil
}
