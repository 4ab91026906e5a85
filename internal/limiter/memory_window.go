package limiter

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	start int64
	count int64
}

// MemoryWindowLimiter 进程内固定窗口限流器，未启用 Redis 时使用
type MemoryWindowLimiter struct {
	mu       sync.Mutex
	config   *Config
	counters map[string]*windowCounter
	now      func() time.Time
}

// NewMemoryWindowLimiter 创建进程内固定窗口限流器
func NewMemoryWindowLimiter(config *Config) *MemoryWindowLimiter {
	return &MemoryWindowLimiter{
		config:   config,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// Allow 检查是否允许请求通过
func (m *MemoryWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN 与 Redis 固定窗口脚本的判定规则一致
func (m *MemoryWindowLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := int64(m.config.Window.Seconds())
	now := m.now().Unix()
	start := (now / window) * window

	c, ok := m.counters[key]
	if !ok || c.start != start {
		c = &windowCounter{start: start}
		m.counters[key] = c
	}
	m.evictExpired(start)

	if c.count+n > m.config.Rate {
		return &LimitResult{
			Allowed:       false,
			Limit:         m.config.Rate,
			Remaining:     max(m.config.Rate-c.count, 0),
			RetryAfter:    time.Duration(start+window-now) * time.Second,
			TotalRequests: c.count,
		}, nil
	}

	c.count += n
	return &LimitResult{
		Allowed:       true,
		Limit:         m.config.Rate,
		Remaining:     m.config.Rate - c.count,
		TotalRequests: c.count,
	}, nil
}

// Reset 重置限流状态
func (m *MemoryWindowLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, key)
	return nil
}

// GetInfo 获取当前窗口信息
func (m *MemoryWindowLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := int64(m.config.Window.Seconds())
	start := (m.now().Unix() / window) * window

	var used int64
	if c, ok := m.counters[key]; ok && c.start == start {
		used = c.count
	}
	return &LimitInfo{
		Limit:     m.config.Rate,
		Remaining: max(m.config.Rate-used, 0),
		Window:    m.config.Window,
		ResetTime: time.Unix(start+window, 0),
	}, nil
}

// evictExpired 清理过期窗口，调用方需持有锁
func (m *MemoryWindowLimiter) evictExpired(current int64) {
	if len(m.counters) < 1024 {
		return
	}
	for k, c := range m.counters {
		if c.start != current {
			delete(m.counters, k)
		}
	}
}
