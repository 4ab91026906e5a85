package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// MemoryCatalog 进程内的商品目录，同时实现 ProductRepository 与 CategoryRepository
// 用于 STORE_DRIVER=memory 以及测试；引用了不存在分类的商品会被跳过并记录日志
type MemoryCatalog struct {
	mu         sync.RWMutex
	categories map[int64]*domain.Category
	products   map[int64]*domain.Product
	nextCatID  int64
	nextProdID int64
	logger     *zap.Logger
}

// NewMemoryCatalog 创建内存目录并载入初始数据
func NewMemoryCatalog(categories []*domain.Category, products []*domain.Product, logger *zap.Logger) *MemoryCatalog {
	m := &MemoryCatalog{
		categories: make(map[int64]*domain.Category),
		products:   make(map[int64]*domain.Product),
		logger:     logger,
	}
	for _, c := range categories {
		cp := *c
		m.categories[cp.ID] = &cp
		if cp.ID > m.nextCatID {
			m.nextCatID = cp.ID
		}
	}
	for _, p := range products {
		m.products[p.ID] = cloneProduct(p)
		if p.ID > m.nextProdID {
			m.nextProdID = p.ID
		}
	}
	return m
}

// Create 实现 ProductRepository.Create
func (m *MemoryCatalog) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[product.CategoryID]; !ok {
		return &domain.ValidationError{Field: "category_id", Reason: "references unknown category"}
	}
	m.nextProdID++
	product.ID = m.nextProdID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
		product.UpdatedAt = product.CreatedAt
	}
	m.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID 根据ID获取商品
func (m *MemoryCatalog) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return m.hydrate(p), nil
}

// GetByIDs 批量获取商品，结果按 ID 升序
func (m *MemoryCatalog) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			if hp := m.hydrate(p); hp != nil {
				out = append(out, hp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// List 过滤、排序后返回指定页
func (m *MemoryCatalog) List(ctx context.Context, q *domain.FilterQuery) ([]*domain.Product, int64, error) {
	m.mu.RLock()
	matched := m.filter(q)
	m.mu.RUnlock()

	sortProducts(matched, q.Sort)

	total := int64(len(matched))
	start := q.Offset()
	if start < 0 || start >= len(matched) {
		return []*domain.Product{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// MatchingIDs 返回满足条件的全部商品ID
func (m *MemoryCatalog) MatchingIDs(ctx context.Context, q *domain.FilterQuery) ([]int64, error) {
	m.mu.RLock()
	matched := m.filter(q)
	m.mu.RUnlock()

	ids := make([]int64, len(matched))
	for i, p := range matched {
		ids[i] = p.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListFeatured 返回最新的推荐商品
func (m *MemoryCatalog) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	m.mu.RLock()
	var featured []*domain.Product
	for _, p := range m.products {
		if !p.Featured {
			continue
		}
		if hp := m.hydrate(p); hp != nil {
			featured = append(featured, hp)
		}
	}
	m.mu.RUnlock()

	sortProducts(featured, domain.SortNewest)
	if len(featured) > limit {
		featured = featured[:limit]
	}
	if featured == nil {
		featured = []*domain.Product{}
	}
	return featured, nil
}

// CreateCategory 实现 CategoryRepository.Create
func (m *MemoryCatalog) CreateCategory(ctx context.Context, category *domain.Category) error {
	if !domain.IsValidSlug(category.Slug) {
		return &domain.ValidationError{Field: "slug", Reason: "must be lowercase words joined by hyphens"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c.Slug == category.Slug {
			return &domain.ValidationError{Field: "slug", Reason: "already exists"}
		}
	}
	m.nextCatID++
	category.ID = m.nextCatID
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	cp := *category
	m.categories[cp.ID] = &cp
	return nil
}

// GetBySlug 根据 slug 获取分类
func (m *MemoryCatalog) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			return m.withCount(c), nil
		}
	}
	return nil, nil
}

// ListCategories 返回全部分类，按名称升序
func (m *MemoryCatalog) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	m.mu.RLock()
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, m.withCount(c))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Categories 以 CategoryRepository 的形式暴露分类操作
func (m *MemoryCatalog) Categories() CategoryRepository {
	return memoryCategories{m}
}

type memoryCategories struct{ m *MemoryCatalog }

func (c memoryCategories) Create(ctx context.Context, category *domain.Category) error {
	return c.m.CreateCategory(ctx, category)
}

func (c memoryCategories) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return c.m.GetBySlug(ctx, slug)
}

func (c memoryCategories) List(ctx context.Context) ([]*domain.Category, error) {
	return c.m.ListCategories(ctx)
}

// filter 调用方需持有读锁
func (m *MemoryCatalog) filter(q *domain.FilterQuery) []*domain.Product {
	var out []*domain.Product
	for _, p := range m.products {
		if !q.Matches(p) {
			continue
		}
		hp := m.hydrate(p)
		if hp == nil {
			continue
		}
		if q.Category != "" && hp.Category.Slug != q.Category {
			continue
		}
		out = append(out, hp)
	}
	return out
}

// hydrate 返回带分类摘要的商品副本，分类不存在时返回 nil，调用方需持有读锁
func (m *MemoryCatalog) hydrate(p *domain.Product) *domain.Product {
	c, ok := m.categories[p.CategoryID]
	if !ok {
		m.logger.Warn("skipping product with missing category",
			zap.Int64("product_id", p.ID),
			zap.Int64("category_id", p.CategoryID),
			zap.Error(domain.ErrDataIntegrity),
		)
		return nil
	}
	cp := cloneProduct(p)
	cp.Category = c.Ref()
	return cp
}

// withCount 调用方需持有读锁
func (m *MemoryCatalog) withCount(c *domain.Category) *domain.Category {
	cp := *c
	cp.ProductCount = 0
	for _, p := range m.products {
		if p.CategoryID == c.ID {
			cp.ProductCount++
		}
	}
	return &cp
}

// sortProducts 按排序方式排序，总是以 ID 升序打破平局
func sortProducts(products []*domain.Product, key domain.SortKey) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch key {
		case domain.SortPriceAsc:
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c < 0
			}
		case domain.SortPriceDesc:
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c > 0
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	if p.Variants != nil {
		cp.Variants = make([]domain.Variant, len(p.Variants))
		for i, v := range p.Variants {
			cp.Variants[i] = domain.Variant{Type: v.Type, Options: append([]string(nil), v.Options...)}
		}
	}
	if p.Category != nil {
		ref := *p.Category
		cp.Category = &ref
	}
	return &cp
}

