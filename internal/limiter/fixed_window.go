// Package limiter 固定窗口限流器实现
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisScripter 固定窗口用到的 Redis 命令子集
type redisScripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// FixedWindowLimiter 固定窗口限流器
type FixedWindowLimiter struct {
	client    redisScripter
	config    *Config
	keyPrefix string
	now       func() time.Time
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(client redisScripter, config *Config) *FixedWindowLimiter {
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "limiter:fw"
	}

	return &FixedWindowLimiter{
		client:    client,
		config:    config,
		keyPrefix: prefix,
		now:       time.Now,
	}
}

// Redis Lua脚本：固定窗口算法
const fixedWindowScript = `
-- KEYS[1]: 计数器key
-- ARGV[1]: 限制数量(rate)
-- ARGV[2]: 时间窗口(window秒)
-- ARGV[3]: 请求数量
-- ARGV[4]: 当前时间戳

local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local requests = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local window_start = math.floor(now / window) * window
local window_key = key .. ":" .. window_start

local current_requests = tonumber(redis.call('GET', window_key) or 0)

if current_requests + requests > limit then
    local retry_after = window_start + window - now
    return {0, limit - current_requests, retry_after, current_requests}
end

local new_count = redis.call('INCRBY', window_key, requests)
redis.call('EXPIRE', window_key, window)
return {1, limit - new_count, 0, new_count}
`

// getKey 生成Redis key
func (fw *FixedWindowLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", fw.keyPrefix, key)
}

func (fw *FixedWindowLimiter) windowSeconds() int64 {
	return int64(fw.config.Window.Seconds())
}

// Allow 检查是否允许请求通过
func (fw *FixedWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求通过
func (fw *FixedWindowLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	result := fw.client.Eval(ctx, fixedWindowScript,
		[]string{fw.getKey(key)},
		fw.config.Rate,
		fw.windowSeconds(),
		n,
		fw.now().Unix(),
	)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to execute fixed window script: %w", err)
	}

	values, err := result.Int64Slice()
	if err != nil || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format: %v", result.Val())
	}

	remaining := values[1]
	if remaining < 0 {
		remaining = 0
	}
	return &LimitResult{
		Allowed:       values[0] == 1,
		Limit:         fw.config.Rate,
		Remaining:     remaining,
		RetryAfter:    time.Duration(values[2]) * time.Second,
		TotalRequests: values[3],
	}, nil
}

// Reset 删除该 key 的所有窗口计数
func (fw *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	pattern := fw.getKey(key) + ":*"
	iter := fw.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	if len(keys) > 0 {
		if err := fw.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
	}
	return nil
}

// GetInfo 获取当前窗口信息
func (fw *FixedWindowLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	windowSeconds := fw.windowSeconds()
	nowUnix := fw.now().Unix()
	windowStart := (nowUnix / windowSeconds) * windowSeconds
	windowKey := fmt.Sprintf("%s:%d", fw.getKey(key), windowStart)

	current, err := fw.client.Get(ctx, windowKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read window counter: %w", err)
	}

	remaining := fw.config.Rate - current
	if remaining < 0 {
		remaining = 0
	}
	return &LimitInfo{
		Limit:     fw.config.Rate,
		Remaining: remaining,
		Window:    fw.config.Window,
		ResetTime: time.Unix(windowStart+windowSeconds, 0),
	}, nil
}
