// Package repo 实现数据访问层，负责与数据库、Redis 以及内存存储的交互。
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// ProductRepository 定义商品数据访问接口
// 查不到单个商品时返回 (nil, nil)
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	// List 返回 q 指定页的商品以及满足条件的商品总数
	List(ctx context.Context, q *domain.FilterQuery) ([]*domain.Product, int64, error)
	// MatchingIDs 返回满足过滤条件的全部商品 ID（按 ID 升序），忽略排序与分页
	MatchingIDs(ctx context.Context, q *domain.FilterQuery) ([]int64, error)
	// ListFeatured 返回最新的 limit 个推荐商品
	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)
}

// productRepo 基于 MySQL 的 ProductRepository 实现
// 查询总是 JOIN categories，引用了不存在分类的商品在计数与分页中一并被排除
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `p.id, p.title, p.description, p.price, p.images, p.variants, p.category_id,
	c.name, c.slug, p.stock, p.featured, p.created_at, p.updated_at`

const productFrom = `FROM products p JOIN categories c ON c.id = p.category_id`

// Create 创建商品
func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	images, err := domain.EncodeImages(product.Images)
	if err != nil {
		return err
	}
	variants, err := domain.EncodeVariants(product.Variants)
	if err != nil {
		return err
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}

	query := `
		INSERT INTO products (title, description, price, images, variants, category_id, stock, featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		product.Title,
		product.Description,
		product.Price,
		images,
		nullString(variants),
		product.CategoryID,
		product.Stock,
		product.Featured,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	product.ID = id
	return nil
}

// GetByID 根据ID获取商品
func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE p.id = ?", productColumns, productFrom)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}
	return product, nil
}

// GetByIDs 根据ID列表批量获取商品，结果按 ID 升序
func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	query := fmt.Sprintf("SELECT %s %s WHERE p.id IN (%s) ORDER BY p.id",
		productColumns, productFrom, placeholders)

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return r.queryProducts(ctx, query, args...)
}

// List 获取商品列表
func (r *productRepo) List(ctx context.Context, q *domain.FilterQuery) ([]*domain.Product, int64, error) {
	where, args := buildListWhereClause(q)

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s %s", productFrom, where)
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// 超出范围的页不需要再查数据
	if offset := q.Offset(); offset < 0 || int64(offset) >= total {
		return []*domain.Product{}, total, nil
	}

	query := fmt.Sprintf("SELECT %s %s %s %s LIMIT ? OFFSET ?",
		productColumns, productFrom, where, buildOrderClause(q.Sort))
	args = append(args, q.PageSize, q.Offset())

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// MatchingIDs 返回满足条件的全部商品ID
func (r *productRepo) MatchingIDs(ctx context.Context, q *domain.FilterQuery) ([]int64, error) {
	where, args := buildListWhereClause(q)
	query := fmt.Sprintf("SELECT p.id %s %s ORDER BY p.id", productFrom, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFeatured 获取推荐商品
func (r *productRepo) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE p.featured = TRUE %s LIMIT ?",
		productColumns, productFrom, buildOrderClause(domain.SortNewest))
	return r.queryProducts(ctx, query, limit)
}

func (r *productRepo) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		ref      domain.CategoryRef
		images   string
		variants sql.NullString
	)
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Price,
		&images,
		&variants,
		&product.CategoryID,
		&ref.Name,
		&ref.Slug,
		&product.Stock,
		&product.Featured,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if product.Images, err = domain.DecodeImages(images); err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}
	if product.Variants, err = domain.DecodeVariants(variants.String); err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}
	product.Category = &ref
	return &product, nil
}

// buildListWhereClause 构建查询条件子句，所有条件以 AND 组合
func buildListWhereClause(q *domain.FilterQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Search != "" {
		conditions = append(conditions, `(LOWER(p.title) LIKE ? ESCAPE '\\' OR LOWER(p.description) LIKE ? ESCAPE '\\')`)
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	if q.Category != "" {
		conditions = append(conditions, "c.slug = ?")
		args = append(args, q.Category)
	}

	if q.MinPrice != nil {
		conditions = append(conditions, "p.price >= ?")
		args = append(args, q.MinPrice.String())
	}

	if q.MaxPrice != nil {
		conditions = append(conditions, "p.price <= ?")
		args = append(args, q.MaxPrice.String())
	}

	if len(conditions) > 0 {
		return "WHERE " + strings.Join(conditions, " AND "), args
	}
	return "", args
}

// buildOrderClause 构建排序子句，总是以 p.id 升序打破平局
// popular 的排序由服务层结合排行信号完成，这里按 newest 处理
func buildOrderClause(sort domain.SortKey) string {
	switch sort {
	case domain.SortPriceAsc:
		return "ORDER BY p.price ASC, p.id ASC"
	case domain.SortPriceDesc:
		return "ORDER BY p.price DESC, p.id ASC"
	default:
		return "ORDER BY p.created_at DESC, p.id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
