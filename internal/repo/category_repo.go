package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// CategoryRepository 定义分类数据访问接口
// 查不到分类时返回 (nil, nil)
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	// List 返回全部分类及其商品数量，按名称升序
	List(ctx context.Context) ([]*domain.Category, error)
}

// categoryRepo 基于 MySQL 的 CategoryRepository 实现
type categoryRepo struct {
	db *sql.DB
}

// NewCategoryRepository 创建分类仓储实例
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

// Create 创建分类
func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	if !domain.IsValidSlug(category.Slug) {
		return &domain.ValidationError{Field: "slug", Reason: "must be lowercase words joined by hyphens"}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, image) VALUES (?, ?, ?, ?)`,
		category.Name,
		category.Slug,
		nullString(category.Description),
		nullString(category.Image),
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	category.ID = id
	return nil
}

const categorySelect = `
	SELECT c.id, c.name, c.slug, c.description, c.image, c.created_at, COUNT(p.id)
	FROM categories c
	LEFT JOIN products p ON p.category_id = c.id
`

// GetBySlug 根据 slug 获取分类
func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := categorySelect + " WHERE c.slug = ? GROUP BY c.id"

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return category, nil
}

// List 获取分类列表
func (r *categoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	query := categorySelect + " GROUP BY c.id ORDER BY c.name ASC, c.id ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c           domain.Category
		description sql.NullString
		image       sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &description, &image, &c.CreatedAt, &c.ProductCount); err != nil {
		return nil, err
	}
	c.Description = description.String
	c.Image = image.String
	return &c, nil
}
