// Package limiter 限流中间件实现
package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/resp"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 错误处理函数
	ErrorHandler func(*gin.Context, error)

	// 限流回调函数
	OnLimitReached func(*gin.Context, *LimitResult)

	// 是否跳过限流检查
	Skip func(*gin.Context) bool

	// 响应头配置
	Headers *HeaderConfig

	// 限流器故障时放行请求
	FailOpen bool

	Logger *zap.Logger
}

// HeaderConfig 响应头配置
type HeaderConfig struct {
	Enable bool

	LimitHeader      string // X-RateLimit-Limit
	RemainingHeader  string // X-RateLimit-Remaining
	RetryAfterHeader string // Retry-After
}

// DefaultHeaderConfig 默认头配置
func DefaultHeaderConfig() *HeaderConfig {
	return &HeaderConfig{
		Enable:           true,
		LimitHeader:      "X-RateLimit-Limit",
		RemainingHeader:  "X-RateLimit-Remaining",
		RetryAfterHeader: "Retry-After",
	}
}

// DefaultKeyGenerator 默认Key生成器（基于IP）
func DefaultKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = defaultErrorHandler(config)
	}
	if config.OnLimitReached == nil {
		config.OnLimitReached = defaultOnLimitReached
	}
	if config.Headers == nil {
		config.Headers = DefaultHeaderConfig()
	}

	return func(c *gin.Context) {
		if config.Skip != nil && config.Skip(c) {
			c.Next()
			return
		}

		key := config.KeyGenerator(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, key)
		if err != nil {
			config.ErrorHandler(c, err)
			return
		}

		if config.Headers.Enable {
			setRateLimitHeaders(c, result, config.Headers)
		}

		if !result.Allowed {
			config.OnLimitReached(c, result)
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders 设置限流相关的响应头
func setRateLimitHeaders(c *gin.Context, result *LimitResult, headers *HeaderConfig) {
	if headers.LimitHeader != "" && result.Limit > 0 {
		c.Header(headers.LimitHeader, strconv.FormatInt(result.Limit, 10))
	}
	if headers.RemainingHeader != "" {
		c.Header(headers.RemainingHeader, strconv.FormatInt(result.Remaining, 10))
	}
	if headers.RetryAfterHeader != "" && result.RetryAfter > 0 {
		c.Header(headers.RetryAfterHeader, strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
	}
}

func defaultErrorHandler(config *MiddlewareConfig) func(*gin.Context, error) {
	return func(c *gin.Context, err error) {
		requestID, traceID := middleware.IDs(c.Request)
		config.Logger.Warn("rate limiter unavailable",
			zap.String("request_id", requestID),
			zap.Bool("fail_open", config.FailOpen),
			zap.Error(err),
		)
		if config.FailOpen {
			c.Next()
			return
		}
		resp.Error(c.Writer, http.StatusServiceUnavailable, resp.CodeInternalError, "rate limiter unavailable", requestID, traceID)
		c.Abort()
	}
}

func defaultOnLimitReached(c *gin.Context, result *LimitResult) {
	requestID, traceID := middleware.IDs(c.Request)
	resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
		"too many requests, please retry later", requestID, traceID)
	c.Abort()
}

// APIRateLimitMiddleware 公共 API 限流中间件，按客户端 IP 计数，限流器故障时放行
func APIRateLimitMiddleware(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitMiddleware(&MiddlewareConfig{
		Limiter:      limiter,
		KeyGenerator: DefaultKeyGenerator,
		Headers:      DefaultHeaderConfig(),
		FailOpen:     true,
		Logger:       logger,
		Skip: func(c *gin.Context) bool {
			return c.Request.Method == http.MethodOptions
		},
	})
}
