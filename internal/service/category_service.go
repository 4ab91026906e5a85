package service

import (
	"context"
	"fmt"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/repo"
)

// CategoryService 定义分类查询接口
type CategoryService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, slug string) (*domain.Category, error)
}

type categoryService struct {
	categories repo.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(categories repo.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

// ListCategories 按名称升序返回全部分类及商品数量
func (s *categoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategory 根据 slug 获取分类
func (s *categoryService) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, fmt.Errorf("category %q: %w", slug, domain.ErrNotFound)
	}
	return category, nil
}
