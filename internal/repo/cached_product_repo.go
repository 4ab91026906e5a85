package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// CachedProductRepository 带缓存的商品仓储
// 单个商品与推荐列表走缓存；列表查询参数组合太多，不缓存
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// Create 创建商品并清除推荐列表缓存
func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Create(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, productCacheKey(product.ID), featuredCacheKey)
	return nil
}

// GetByID 根据ID获取商品（带缓存）
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := productCacheKey(id)

	var product domain.Product
	if err := r.cache.Get(ctx, key, &product); err == nil {
		return &product, nil
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil || result == nil {
		return result, err
	}

	r.store(ctx, key, result)
	return result, nil
}

// GetByIDs 批量获取商品（部分缓存），结果按 ID 升序
func (r *CachedProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	found := make(map[int64]*domain.Product, len(ids))
	var missing []int64

	for _, id := range ids {
		var product domain.Product
		if err := r.cache.Get(ctx, productCacheKey(id), &product); err == nil {
			found[id] = &product
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		fromDB, err := r.repo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range fromDB {
			found[p.ID] = p
			r.store(ctx, productCacheKey(p.ID), p)
		}
	}

	out := make([]*domain.Product, 0, len(found))
	for _, id := range sortedIDs(found) {
		out = append(out, found[id])
	}
	return out, nil
}

// List 获取商品列表（不缓存）
func (r *CachedProductRepository) List(ctx context.Context, q *domain.FilterQuery) ([]*domain.Product, int64, error) {
	return r.repo.List(ctx, q)
}

// MatchingIDs 不缓存
func (r *CachedProductRepository) MatchingIDs(ctx context.Context, q *domain.FilterQuery) ([]int64, error) {
	return r.repo.MatchingIDs(ctx, q)
}

// featuredEntry 推荐列表缓存项，limit 不同视为未命中
type featuredEntry struct {
	Limit    int               `json:"limit"`
	Products []*domain.Product `json:"products"`
}

// ListFeatured 获取推荐商品（带缓存）
func (r *CachedProductRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	var entry featuredEntry
	if err := r.cache.Get(ctx, featuredCacheKey, &entry); err == nil && entry.Limit == limit {
		return entry.Products, nil
	}

	products, err := r.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}
	r.store(ctx, featuredCacheKey, featuredEntry{Limit: limit, Products: products})
	return products, nil
}

func (r *CachedProductRepository) store(ctx context.Context, key string, value interface{}) {
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

const featuredCacheKey = "products:featured"

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:id:%d", id)
}

func sortedIDs(m map[int64]*domain.Product) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
