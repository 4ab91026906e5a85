package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// NavigationService 根据会话生成导航
type NavigationService interface {
	Navigation(ctx context.Context, principal *domain.Principal) *domain.Navigation
}

type navigationService struct {
	carts  CartService
	logger *zap.Logger
}

// NewNavigationService 创建导航服务，carts 可以为 nil
func NewNavigationService(carts CartService, logger *zap.Logger) NavigationService {
	return &navigationService{carts: carts, logger: logger}
}

var baseLinks = []domain.NavLink{
	{Label: "Home", Href: "/"},
	{Label: "Shop", Href: "/shop"},
	{Label: "Categories", Href: "/categories"},
	{Label: "Contact", Href: "/contact"},
}

// Navigation 匿名用户只看到公共链接与登录入口；登录用户多出心愿单，
// 账户入口按角色区分管理后台与个人资料
func (s *navigationService) Navigation(ctx context.Context, principal *domain.Principal) *domain.Navigation {
	nav := &domain.Navigation{
		Principal: principal,
		Links:     append([]domain.NavLink(nil), baseLinks...),
	}

	if principal == nil {
		nav.Account = domain.NavLink{Label: "Sign In", Href: "/login"}
		return nav
	}

	nav.Links = append(nav.Links, domain.NavLink{Label: "Wishlist", Href: "/wishlist"})
	if principal.IsAdmin() {
		nav.Account = domain.NavLink{Label: "Admin Panel", Href: "/admin"}
	} else {
		nav.Account = domain.NavLink{Label: "My Profile", Href: "/profile"}
	}

	if s.carts != nil {
		count, err := s.carts.Count(ctx, principal.ID)
		if err != nil {
			s.logger.Warn("cart count unavailable", zap.String("user_id", principal.ID), zap.Error(err))
		}
		nav.CartCount = count
	}
	return nav
}
