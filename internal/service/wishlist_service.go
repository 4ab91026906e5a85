package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/repo"
)

// WishlistService 心愿单业务接口
type WishlistService interface {
	List(ctx context.Context, userID string) ([]*domain.Product, error)
	Add(ctx context.Context, userID string, productID int64) error
	Remove(ctx context.Context, userID string, productID int64) error
}

type wishlistService struct {
	store     repo.WishlistStore
	products  repo.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(store repo.WishlistStore, products repo.ProductRepository, publisher events.Publisher, logger *zap.Logger) WishlistService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &wishlistService{store: store, products: products, publisher: publisher, logger: logger}
}

// List 返回心愿单中仍然存在的商品，按ID升序
func (s *wishlistService) List(ctx context.Context, userID string) ([]*domain.Product, error) {
	ids, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist products: %w", err)
	}
	return products, nil
}

// Add 加入心愿单，重复加入不会再次计入热度
func (s *wishlistService) Add(ctx context.Context, userID string, productID int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}

	added, err := s.store.Add(ctx, userID, productID)
	if err != nil {
		return err
	}
	if added {
		ev := events.NewActivityEvent(events.WishlistAdded, productID, userID)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("activity event not published", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, userID string, productID int64) error {
	return s.store.Remove(ctx, userID, productID)
}
