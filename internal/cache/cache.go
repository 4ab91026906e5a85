// Package cache 提供缓存抽象以及内存、空、Redis 三种实现
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrMiss 缓存未命中（包括已过期与缓存被禁用）
var ErrMiss = errors.New("cache miss")

// Cache 定义缓存操作接口
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryCache 内存缓存实现（用于开发、测试以及 Redis 不可用时的降级）
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]*memoryCacheItem
	now  func() time.Time
}

type memoryCacheItem struct {
	value      []byte
	expiration time.Time // 零值表示永不过期
}

func (i *memoryCacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]*memoryCacheItem),
		now:  time.Now,
	}
}

// Get 获取缓存值
func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	item, exists := m.data[key]
	m.mu.RUnlock()
	if !exists {
		return ErrMiss
	}

	if item.expired(m.now()) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return ErrMiss
	}

	return json.Unmarshal(item.value, dest)
}

// Set 设置缓存值，expiration <= 0 表示永不过期
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	item := &memoryCacheItem{value: data}
	if expiration > 0 {
		item.expiration = m.now().Add(expiration)
	}

	m.mu.Lock()
	m.data[key] = item
	m.mu.Unlock()
	return nil
}

// Del 删除缓存值
func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// Exists 检查键是否存在
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	item, exists := m.data[key]
	m.mu.RUnlock()
	if !exists {
		return false, nil
	}
	return !item.expired(m.now()), nil
}

// Ping 检查连接
func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close 清空缓存
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.data = make(map[string]*memoryCacheItem)
	m.mu.Unlock()
	return nil
}

// NullCache 空缓存实现（禁用缓存时使用）
type NullCache struct{}

// NewNullCache 创建空缓存实例
func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) Get(ctx context.Context, key string, dest interface{}) error {
	return ErrMiss
}

func (n *NullCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (n *NullCache) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *NullCache) Ping(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}
