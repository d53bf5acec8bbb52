package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facegate.io/application/utils"
	"facegate.io/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

// Trims the window, then records a hit only when there is room for it.
// Returns {1, 0} on success or {0, ms until the oldest hit leaves the window}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, tonumber(oldest[2]) + window - now}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, 0}
`)

type RedisRepository struct {
	Client *redis.Client
}

func (redisRepo *RedisRepository) CreateEntry(ctx context.Context, key string, payload interface{}, ttl time.Duration) bool {
	_, err := redisRepo.Client.Set(ctx, key, payload, ttl).Result()
	if err != nil {
		logger.Error("redis error occured while running CreateEntry", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "key",
			Data: key,
		})
		return false
	}
	return true
}

func (redisRepo *RedisRepository) FindOne(ctx context.Context, key string) *string {
	result, err := redisRepo.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		logger.Error("redis error occured while running FindOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "key",
			Data: key,
		})
		return nil
	}
	return &result
}

// HitSlidingWindow records one hit on key unless limit hits already landed
// within window before now. When refused it reports how long until a slot frees up.
func (redisRepo *RedisRepository) HitSlidingWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, time.Duration, error) {
	raw, err := slidingWindow.Run(ctx, redisRepo.Client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, utils.GenerateUULDString()).Slice()
	if err != nil {
		logger.Error("redis error occured while running HitSlidingWindow", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "key",
			Data: key,
		})
		return false, 0, err
	}
	if len(raw) != 2 {
		return false, 0, fmt.Errorf("unexpected sliding window reply %v", raw)
	}
	allowed, _ := raw[0].(int64)
	waitMillis, _ := raw[1].(int64)
	return allowed == 1, time.Duration(waitMillis) * time.Millisecond, nil
}
