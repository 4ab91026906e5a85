package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/storage"
)

// Amount 金额，按十进制原值输出为 JSON 数字
type Amount decimal.Decimal

// NewAmount 包装金额
func NewAmount(d decimal.Decimal) Amount { return Amount(d) }

// Decimal 返回金额的十进制值
func (a Amount) Decimal() decimal.Decimal { return decimal.Decimal(a) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

// UnmarshalJSON 同时接受数字和带引号的字符串
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}

// ProductDTO 商品的对外表示
// images 为 JSON 编码后的字符串数组
type ProductDTO struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       Amount           `json:"price"`
	Images      string           `json:"images"`
	Category    *CategoryRefDTO  `json:"category"`
	Stock       int              `json:"stock"`
	Featured    bool             `json:"featured"`
	Variants    []domain.Variant `json:"variants,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// CategoryRefDTO 商品所属分类摘要
type CategoryRefDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PaginationDTO 分页信息
type PaginationDTO struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	PageSize    int   `json:"pageSize"`
	HasMore     bool  `json:"hasMore"`
}

// ProductListDTO 商品列表响应
type ProductListDTO struct {
	Products   []ProductDTO  `json:"products"`
	Pagination PaginationDTO `json:"pagination"`
}

// CategoryDTO 分类的对外表示
type CategoryDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	Image        string `json:"image,omitempty"`
	ProductCount int64  `json:"productCount"`
}

// CartLineDTO 购物车行
type CartLineDTO struct {
	Product  ProductDTO `json:"product"`
	Quantity int        `json:"quantity"`
	Subtotal Amount     `json:"subtotal"`
}

// CartDTO 购物车
type CartDTO struct {
	Lines []CartLineDTO `json:"lines"`
	Count int           `json:"count"`
	Total Amount        `json:"total"`
}

// Presenter 把领域对象转换为响应结构，并解析图片地址
type Presenter struct {
	images storage.URLResolver
	logger *zap.Logger
}

// NewPresenter 创建转换器
func NewPresenter(images storage.URLResolver, logger *zap.Logger) *Presenter {
	if images == nil {
		images = storage.NewStaticResolver("")
	}
	return &Presenter{images: images, logger: logger}
}

// Product 转换单个商品
func (p *Presenter) Product(ctx context.Context, product *domain.Product) ProductDTO {
	resolved := storage.ResolveAll(ctx, p.images, product.DisplayImages(), p.logger)
	encoded, err := domain.EncodeImages(resolved)
	if err != nil {
		p.logger.Warn("image list not encodable", zap.Int64("product_id", product.ID), zap.Error(err))
		encoded = "[]"
	}

	dto := ProductDTO{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Price:       NewAmount(product.Price),
		Images:      encoded,
		Stock:       product.Stock,
		Featured:    product.Featured,
		Variants:    product.Variants,
		CreatedAt:   product.CreatedAt,
	}
	if product.Category != nil {
		dto.Category = &CategoryRefDTO{Name: product.Category.Name, Slug: product.Category.Slug}
	}
	return dto
}

// Products 转换商品列表
func (p *Presenter) Products(ctx context.Context, products []*domain.Product) []ProductDTO {
	out := make([]ProductDTO, len(products))
	for i, product := range products {
		out[i] = p.Product(ctx, product)
	}
	return out
}

// Page 转换分页结果
func (p *Presenter) Page(ctx context.Context, page *domain.ResultPage) ProductListDTO {
	return ProductListDTO{
		Products: p.Products(ctx, page.Products),
		Pagination: PaginationDTO{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
			PageSize:    page.PageSize,
			HasMore:     page.HasMore(),
		},
	}
}

// Category 转换分类
func (p *Presenter) Category(ctx context.Context, c *domain.Category) CategoryDTO {
	image := c.Image
	if image != "" {
		if resolved, err := p.images.Resolve(ctx, image); err == nil {
			image = resolved
		}
	}
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		Image:        image,
		ProductCount: c.ProductCount,
	}
}

// Cart 转换购物车
func (p *Presenter) Cart(ctx context.Context, cart *domain.Cart) CartDTO {
	lines := make([]CartLineDTO, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = CartLineDTO{
			Product:  p.Product(ctx, l.Product),
			Quantity: l.Quantity,
			Subtotal: NewAmount(l.Subtotal),
		}
	}
	return CartDTO{Lines: lines, Count: cart.Count, Total: NewAmount(cart.Total)}
}
