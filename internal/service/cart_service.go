package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/repo"
)

// CartService 购物车业务接口
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem 在已有数量上累加
	AddItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error)
	// UpdateItem 设置为指定数量
	UpdateItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
	// Count 购物车商品总件数
	Count(ctx context.Context, userID string) (int, error)
}

type cartService struct {
	store     repo.CartStore
	products  repo.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewCartService 创建购物车服务
func NewCartService(store repo.CartStore, products repo.ProductRepository, publisher events.Publisher, logger *zap.Logger) CartService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &cartService{store: store, products: products, publisher: publisher, logger: logger}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return domain.NewCart(userID, nil), nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]*domain.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			s.logger.Warn("cart references unavailable product",
				zap.String("user_id", userID),
				zap.Int64("product_id", it.ProductID),
			)
			continue
		}
		lines = append(lines, &domain.CartLine{Product: p, Quantity: it.Quantity})
	}
	return domain.NewCart(userID, lines), nil
}

func (s *cartService) AddItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateQuantity(product, quantity); err != nil {
		return nil, err
	}
	if _, err := s.store.AddQuantity(ctx, userID, productID, quantity, product.Stock); err != nil {
		return nil, err
	}

	ev := events.NewActivityEvent(events.CartAdded, productID, userID)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("activity event not published", zap.String("type", string(ev.Type)), zap.Error(err))
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateQuantity(product, quantity); err != nil {
		return nil, err
	}
	current, err := s.store.Quantity(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return nil, fmt.Errorf("cart item %d: %w", productID, domain.ErrNotFound)
	}
	if err := s.store.SetQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

func (s *cartService) Count(ctx context.Context, userID string) (int, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (s *cartService) product(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	return product, nil
}
