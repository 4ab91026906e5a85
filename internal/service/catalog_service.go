package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/ranking"
	"github.com/MorseWayne/boutique_shop/internal/repo"
)

// CatalogService 定义商品目录查询接口
type CatalogService interface {
	// ListProducts 按过滤条件分页查询商品
	ListProducts(ctx context.Context, q *domain.FilterQuery) (*domain.ResultPage, error)
	// GetProduct 获取商品详情并记录一次浏览
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	// FeaturedProducts 获取首页推荐商品
	FeaturedProducts(ctx context.Context) ([]*domain.Product, error)
}

// catalogService 实现CatalogService接口
type catalogService struct {
	products      repo.ProductRepository
	ranker        ranking.Ranker
	publisher     events.Publisher
	featuredLimit int
	logger        *zap.Logger
}

// NewCatalogService 创建商品目录服务；ranker 为 nil 时 popular 排序退化为 newest
func NewCatalogService(products repo.ProductRepository, ranker ranking.Ranker, publisher events.Publisher, featuredLimit int, logger *zap.Logger) CatalogService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if featuredLimit <= 0 {
		featuredLimit = 4
	}
	return &catalogService{
		products:      products,
		ranker:        ranker,
		publisher:     publisher,
		featuredLimit: featuredLimit,
		logger:        logger,
	}
}

// ListProducts 分页查询商品
func (s *catalogService) ListProducts(ctx context.Context, q *domain.FilterQuery) (*domain.ResultPage, error) {
	query := *q
	query.Normalize()

	if query.Sort == domain.SortPopular && s.ranker != nil {
		page, ok, err := s.listPopular(ctx, &query)
		if err != nil {
			return nil, err
		}
		if ok {
			return page, nil
		}
	}

	products, total, err := s.products.List(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return domain.NewResultPage(products, total, &query), nil
}

// listPopular 按热度排序；没有可用的热度数据时返回 ok=false，由调用方按 newest 处理
func (s *catalogService) listPopular(ctx context.Context, q *domain.FilterQuery) (*domain.ResultPage, bool, error) {
	ids, err := s.products.MatchingIDs(ctx, q)
	if err != nil {
		return nil, false, fmt.Errorf("failed to match products: %w", err)
	}
	if len(ids) == 0 {
		return domain.NewResultPage(nil, 0, q), true, nil
	}

	scores, err := s.ranker.Scores(ctx, ids)
	if err != nil {
		s.logger.Warn("popularity unavailable, falling back to newest", zap.Error(err))
		return nil, false, nil
	}
	if len(scores) == 0 {
		return nil, false, nil
	}

	ordered := ranking.OrderByScore(ids, scores)
	total := int64(len(ordered))
	start := q.Offset()
	if start < 0 || start >= len(ordered) {
		return domain.NewResultPage(nil, total, q), true, nil
	}
	end := min(start+q.PageSize, len(ordered))
	pageIDs := ordered[start:end]

	found, err := s.products.GetByIDs(ctx, pageIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]*domain.Product, 0, len(pageIDs))
	for _, id := range pageIDs {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return domain.NewResultPage(products, total, q), true, nil
}

// GetProduct 获取商品详情
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}

	s.publish(ctx, events.NewActivityEvent(events.ProductViewed, id, ""))
	return product, nil
}

// FeaturedProducts 获取推荐商品
func (s *catalogService) FeaturedProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListFeatured(ctx, s.featuredLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// publish 事件发布失败不影响主流程
func (s *catalogService) publish(ctx context.Context, ev events.ActivityEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("activity event not published",
			zap.String("type", string(ev.Type)),
			zap.Int64("product_id", ev.ProductID),
			zap.Error(err),
		)
	}
}
