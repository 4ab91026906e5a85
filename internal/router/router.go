// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/api"
	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/limiter"
	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/resp"
	"github.com/MorseWayne/boutique_shop/internal/service"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	CatalogHandler  *api.CatalogHandler
	CategoryHandler *api.CategoryHandler
	CartHandler     *api.CartHandler
	SessionHandler  *api.SessionHandler
	Verifier        service.TokenVerifier
	// Limiter 为 nil 时不限流
	Limiter limiter.Limiter
	// IdempotencyStore 为 nil 时不做幂等处理
	IdempotencyStore cache.Cache
	IdempotencyTTL   time.Duration
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg

	r.engine.Use(gin.Recovery())
	r.engine.Use(r.routeLogger())

	r.setupRoutes(cfg)
	return r.engine
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes(cfg *config.Config) {
	r.engine.GET("/healthz", r.healthCheck(cfg.App.Version))
	r.engine.NoRoute(r.notFound)

	v1 := r.engine.Group("/api/v1")
	if r.deps.Limiter != nil {
		v1.Use(limiter.APIRateLimitMiddleware(r.deps.Limiter, r.logger))
	}

	// 商品与分类（公开）
	products := v1.Group("/products")
	{
		products.GET("", r.wrapHandler(r.deps.CatalogHandler.ListProducts))
		products.GET("/featured", r.wrapHandler(r.deps.CatalogHandler.FeaturedProducts))
		products.GET("/:id", r.wrapHandler(r.deps.CatalogHandler.GetProduct))
	}
	categories := v1.Group("/categories")
	{
		categories.GET("", r.wrapHandler(r.deps.CategoryHandler.ListCategories))
		categories.GET("/:slug", r.wrapHandler(r.deps.CategoryHandler.GetCategory))
	}

	// 会话导航（可匿名）
	v1.GET("/session", r.wrap(middleware.OptionalAuth(r.deps.Verifier, r.logger)(http.HandlerFunc(r.deps.SessionHandler.Navigation))))

	// 购物车与心愿单（需要认证）
	cart := v1.Group("/cart")
	{
		cart.GET("", r.authed(r.deps.CartHandler.GetCart))
		cart.DELETE("", r.authed(r.deps.CartHandler.Clear))
		cart.POST("/items", r.authed(r.idempotent(r.deps.CartHandler.AddItem)))
		cart.PUT("/items/:productId", r.authed(r.deps.CartHandler.UpdateItem))
		cart.DELETE("/items/:productId", r.authed(r.deps.CartHandler.RemoveItem))
	}
	wishlist := v1.Group("/wishlist")
	{
		wishlist.GET("", r.authed(r.deps.CartHandler.ListWishlist))
		wishlist.POST("", r.authed(r.idempotent(r.deps.CartHandler.AddWishlist)))
		wishlist.DELETE("/:productId", r.authed(r.deps.CartHandler.RemoveWishlist))
	}
}

// healthCheck 健康检查处理器
func (r *GinRouter) healthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := map[string]any{
			"status":  "ok",
			"version": version,
		}
		reqID, traceID := middleware.IDs(c.Request)
		resp.OK(c.Writer, data, reqID, traceID)
	}
}

func (r *GinRouter) notFound(c *gin.Context) {
	reqID, traceID := middleware.IDs(c.Request)
	resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "route not found", reqID, traceID)
}

// wrapHandler 将标准的 http.HandlerFunc 包装为 gin.HandlerFunc
func (r *GinRouter) wrapHandler(handler func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return r.wrap(http.HandlerFunc(handler))
}

// wrap 把 gin 路径参数写入请求上下文后交给标准库处理器
func (r *GinRouter) wrap(h http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			req = req.WithContext(api.WithPathParams(req.Context(), params))
		}
		h.ServeHTTP(c.Writer, req)
	}
}

// authed 需要登录的路由
func (r *GinRouter) authed(handler func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return r.wrap(middleware.AuthMiddleware(r.deps.Verifier, r.logger)(http.HandlerFunc(handler)))
}

// idempotent 对写操作启用幂等键重放
func (r *GinRouter) idempotent(handler func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	if r.deps.IdempotencyStore == nil {
		return handler
	}
	ttl := r.deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return middleware.Idempotency(r.deps.IdempotencyStore, ttl, r.logger)(http.HandlerFunc(handler)).ServeHTTP
}

// routeLogger 以路由模板记录请求，便于按接口聚合
func (r *GinRouter) routeLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		r.logger.Debug("route handled",
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
