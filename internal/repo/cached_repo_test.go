package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// countingProductRepo 记录底层仓储被调用的次数
type countingProductRepo struct {
	ProductRepository
	getByID  int
	getByIDs int
	featured int
}

func (c *countingProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	c.getByID++
	return c.ProductRepository.GetByID(ctx, id)
}

func (c *countingProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	c.getByIDs++
	return c.ProductRepository.GetByIDs(ctx, ids)
}

func (c *countingProductRepo) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	c.featured++
	return c.ProductRepository.ListFeatured(ctx, limit)
}

func TestCachedProductRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	base := &countingProductRepo{ProductRepository: newSeededCatalog()}
	repo := NewCachedProductRepository(base, cache.NewMemoryCache(), time.Minute, zap.NewNop())

	first, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, base.getByID)
	assert.Equal(t, first.Title, second.Title)
	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, "bridal-wear", second.Category.Slug)

	missing, err := repo.GetByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCachedProductRepository_GetByIDsMergesCacheAndStore(t *testing.T) {
	ctx := context.Background()
	base := &countingProductRepo{ProductRepository: newSeededCatalog()}
	repo := NewCachedProductRepository(base, cache.NewMemoryCache(), time.Minute, zap.NewNop())

	_, err := repo.GetByID(ctx, 5)
	require.NoError(t, err)

	got, err := repo.GetByIDs(ctx, []int64{7, 5, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Royal Bridal Lehenga", "Silk Kanjivaram Saree", "Traditional Salwar Kameez"}, titles(got))
	assert.Equal(t, 1, base.getByIDs)

	_, err = repo.GetByIDs(ctx, []int64{7, 5, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, base.getByIDs, "second call should be served from cache")
}

func TestCachedProductRepository_FeaturedInvalidatedOnCreate(t *testing.T) {
	ctx := context.Background()
	base := &countingProductRepo{ProductRepository: newSeededCatalog()}
	repo := NewCachedProductRepository(base, cache.NewMemoryCache(), time.Minute, zap.NewNop())

	_, err := repo.ListFeatured(ctx, 4)
	require.NoError(t, err)
	_, err = repo.ListFeatured(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, base.featured)

	_, err = repo.ListFeatured(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, base.featured, "different limit should miss")

	require.NoError(t, repo.Create(ctx, &domain.Product{
		Title: "Fresh Gown", Price: decimal.NewFromInt(100), CategoryID: 2, Featured: true,
		CreatedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	got, err := repo.ListFeatured(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, base.featured)
	assert.Equal(t, "Fresh Gown", got[0].Title)
}

func TestCachedCategoryRepository(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	repo := NewCachedCategoryRepository(newSeededCatalog().Categories(), mem, time.Minute, zap.NewNop())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	ok, _ := mem.Exists(ctx, categoriesCacheKey)
	assert.True(t, ok)

	c, err := repo.GetBySlug(ctx, "traditional-wear")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Traditional Wear", c.Name)

	require.NoError(t, repo.Create(ctx, &domain.Category{Name: "Footwear", Slug: "footwear"}))
	ok, _ = mem.Exists(ctx, categoriesCacheKey)
	assert.False(t, ok)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
