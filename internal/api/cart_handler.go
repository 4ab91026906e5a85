package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/service"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// UpdateCartItemRequest 修改购物车数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// AddWishlistRequest 加入心愿单请求
type AddWishlistRequest struct {
	ProductID int64 `json:"productId"`
}

// CartHandler 购物车与心愿单相关的HTTP处理器，所有接口都要求登录
type CartHandler struct {
	carts     service.CartService
	wishlist  service.WishlistService
	presenter *Presenter
	logger    *zap.Logger
}

// NewCartHandler 创建购物车处理器实例
func NewCartHandler(carts service.CartService, wishlist service.WishlistService, presenter *Presenter, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, wishlist: wishlist, presenter: presenter, logger: logger}
}

// GetCart 获取当前用户的购物车
// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, h.logger, "get cart", err)
		return
	}
	ok(w, r, h.presenter.Cart(r.Context(), cart))
}

// AddItem 加入购物车，数量在已有基础上累加
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", middleware.RequestIDFromContext(r.Context())), zap.Error(err))
		badRequest(w, r, "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		badRequest(w, r, "invalid product ID")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddItem(r.Context(), principal.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, "add cart item", err)
		return
	}
	ok(w, r, h.presenter.Cart(r.Context(), cart))
}

// UpdateItem 修改购物车中某商品的数量
// PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	productID, valid := pathInt64(r, "productId")
	if !valid {
		badRequest(w, r, "invalid product ID")
		return
	}
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	cart, err := h.carts.UpdateItem(r.Context(), principal.ID, productID, req.Quantity)
	if err != nil {
		writeError(w, r, h.logger, "update cart item", err)
		return
	}
	ok(w, r, h.presenter.Cart(r.Context(), cart))
}

// RemoveItem 从购物车移除商品
// DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	productID, valid := pathInt64(r, "productId")
	if !valid {
		badRequest(w, r, "invalid product ID")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), principal.ID, productID)
	if err != nil {
		writeError(w, r, h.logger, "remove cart item", err)
		return
	}
	ok(w, r, h.presenter.Cart(r.Context(), cart))
}

// Clear 清空购物车
// DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	if err := h.carts.Clear(r.Context(), principal.ID); err != nil {
		writeError(w, r, h.logger, "clear cart", err)
		return
	}
	ok(w, r, CartDTO{Lines: []CartLineDTO{}})
}

// ListWishlist 获取心愿单商品
// GET /api/v1/wishlist
func (h *CartHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	products, err := h.wishlist.List(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, h.logger, "list wishlist", err)
		return
	}
	ok(w, r, h.presenter.Products(r.Context(), products))
}

// AddWishlist 加入心愿单
// POST /api/v1/wishlist
func (h *CartHandler) AddWishlist(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	var req AddWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		badRequest(w, r, "invalid product ID")
		return
	}

	if err := h.wishlist.Add(r.Context(), principal.ID, req.ProductID); err != nil {
		writeError(w, r, h.logger, "add wishlist item", err)
		return
	}
	h.ListWishlist(w, r)
}

// RemoveWishlist 从心愿单移除
// DELETE /api/v1/wishlist/{productId}
func (h *CartHandler) RemoveWishlist(w http.ResponseWriter, r *http.Request) {
	principal, authed := requirePrincipal(w, r)
	if !authed {
		return
	}

	productID, valid := pathInt64(r, "productId")
	if !valid {
		badRequest(w, r, "invalid product ID")
		return
	}

	if err := h.wishlist.Remove(r.Context(), principal.ID, productID); err != nil {
		writeError(w, r, h.logger, "remove wishlist item", err)
		return
	}
	h.ListWishlist(w, r)
}
