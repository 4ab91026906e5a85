package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/service"
)

// CatalogHandler 商品目录相关的HTTP处理器
type CatalogHandler struct {
	catalog   service.CatalogService
	presenter *Presenter
	logger    *zap.Logger
}

// NewCatalogHandler 创建商品目录处理器实例
func NewCatalogHandler(catalog service.CatalogService, presenter *Presenter, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		presenter: presenter,
		logger:    logger,
	}
}

// ListProducts 按过滤条件分页获取商品列表
// GET /api/v1/products?search=&category=&minPrice=&maxPrice=&sort=&page=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := ParseFilterQuery(r.URL.Query())

	page, err := h.catalog.ListProducts(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, "list products", err)
		return
	}

	h.logger.Debug("products listed",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("sort", string(q.Sort)),
		zap.Int("page", q.Page),
		zap.Int64("total", page.TotalItems),
	)
	ok(w, r, h.presenter.Page(r.Context(), page))
}

// FeaturedProducts 获取首页推荐商品
// GET /api/v1/products/featured
func (h *CatalogHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "list featured products", err)
		return
	}
	ok(w, r, h.presenter.Products(r.Context(), products))
}

// GetProduct 获取商品详情
// GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, valid := pathInt64(r, "id")
	if !valid {
		badRequest(w, r, "invalid product ID")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, "get product", err)
		return
	}
	ok(w, r, h.presenter.Product(r.Context(), product))
}

// CategoryHandler 分类相关的HTTP处理器
type CategoryHandler struct {
	categories service.CategoryService
	presenter  *Presenter
	logger     *zap.Logger
}

// NewCategoryHandler 创建分类处理器实例
func NewCategoryHandler(categories service.CategoryService, presenter *Presenter, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, presenter: presenter, logger: logger}
}

// ListCategories 获取全部分类及商品数量
// GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "list categories", err)
		return
	}

	out := make([]CategoryDTO, len(list))
	for i, c := range list {
		out[i] = h.presenter.Category(r.Context(), c)
	}
	ok(w, r, out)
}

// GetCategory 根据 slug 获取分类
// GET /api/v1/categories/{slug}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	slug := PathParam(r, "slug")
	if slug == "" {
		badRequest(w, r, "invalid category slug")
		return
	}

	c, err := h.categories.GetCategory(r.Context(), slug)
	if err != nil {
		writeError(w, r, h.logger, "get category", err)
		return
	}
	ok(w, r, h.presenter.Category(r.Context(), c))
}
