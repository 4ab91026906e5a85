// Package ranking 维护商品热度分数，用于 popular 排序。
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Entry 单个商品的热度
type Entry struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
}

// Ranker 热度存储接口
type Ranker interface {
	// Incr 为商品累加热度
	Incr(ctx context.Context, productID int64, delta float64) error
	// Scores 返回给定商品中有热度的那部分，没有记录的商品不出现在结果中
	Scores(ctx context.Context, ids []int64) (map[int64]float64, error)
	// Top 返回热度最高的 n 个商品，分数相同按ID升序
	Top(ctx context.Context, n int) ([]Entry, error)
}

// RedisRanker 基于 Redis 有序集合的热度存储
type RedisRanker struct {
	client redis.UniversalClient
	key    string
}

// NewRedisRanker 创建 Redis 热度存储
func NewRedisRanker(client redis.UniversalClient, key string) *RedisRanker {
	if key == "" {
		key = "catalog:popularity"
	}
	return &RedisRanker{client: client, key: key}
}

func (r *RedisRanker) Incr(ctx context.Context, productID int64, delta float64) error {
	if err := r.client.ZIncrBy(ctx, r.key, delta, member(productID)).Err(); err != nil {
		return fmt.Errorf("failed to increment popularity: %w", err)
	}
	return nil
}

func (r *RedisRanker) Scores(ctx context.Context, ids []int64) (map[int64]float64, error) {
	out := make(map[int64]float64)
	if len(ids) == 0 {
		return out, nil
	}

	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = member(id)
	}
	scores, err := r.client.ZMScore(ctx, r.key, members...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load popularity scores: %w", err)
	}
	for i, s := range scores {
		if i < len(ids) && s > 0 {
			out[ids[i]] = s
		}
	}
	return out, nil
}

func (r *RedisRanker) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		s, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{ProductID: id, Score: z.Score})
	}
	SortEntries(entries)
	return entries, nil
}

func member(id int64) string {
	return strconv.FormatInt(id, 10)
}

// MemoryRanker 进程内热度存储
type MemoryRanker struct {
	mu     sync.RWMutex
	scores map[int64]float64
}

// NewMemoryRanker 创建进程内热度存储
func NewMemoryRanker() *MemoryRanker {
	return &MemoryRanker{scores: make(map[int64]float64)}
}

func (m *MemoryRanker) Incr(ctx context.Context, productID int64, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[productID] += delta
	return nil
}

func (m *MemoryRanker) Scores(ctx context.Context, ids []int64) (map[int64]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]float64)
	for _, id := range ids {
		if s, ok := m.scores[id]; ok && s > 0 {
			out[id] = s
		}
	}
	return out, nil
}

func (m *MemoryRanker) Top(ctx context.Context, n int) ([]Entry, error) {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.scores))
	for id, s := range m.scores {
		entries = append(entries, Entry{ProductID: id, Score: s})
	}
	m.mu.RUnlock()

	SortEntries(entries)
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// SortEntries 按分数降序、商品ID升序排序
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ProductID < entries[j].ProductID
	})
}

// OrderByScore 按热度排列 ids：分数降序，分数相同或无分数时ID升序，无分数的排在最后
func OrderByScore(ids []int64, scores map[int64]float64) []int64 {
	out := append([]int64(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := scores[out[i]], scores[out[j]]
		if si != sj {
			return si > sj
		}
		return out[i] < out[j]
	})
	return out
}
