package repo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/domain"
)

const categoriesCacheKey = "categories:all"

// CachedCategoryRepository 带缓存的分类仓储
// 分类列表整体缓存，按 slug 查询从列表中取
type CachedCategoryRepository struct {
	repo   CategoryRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCategoryRepository 创建带缓存的分类仓储
func NewCachedCategoryRepository(repo CategoryRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) CategoryRepository {
	return &CachedCategoryRepository{repo: repo, cache: c, ttl: ttl, logger: logger}
}

// Create 创建分类并清除列表缓存
func (r *CachedCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := r.repo.Create(ctx, category); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, categoriesCacheKey); err != nil {
		r.logger.Warn("cache invalidation failed", zap.String("key", categoriesCacheKey), zap.Error(err))
	}
	return nil
}

// GetBySlug 根据 slug 获取分类
func (r *CachedCategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

// List 获取分类列表（带缓存）
func (r *CachedCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category
	if err := r.cache.Get(ctx, categoriesCacheKey, &categories); err == nil {
		return categories, nil
	}

	categories, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, categoriesCacheKey, categories, r.ttl); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", categoriesCacheKey), zap.Error(err))
	}
	return categories, nil
}
