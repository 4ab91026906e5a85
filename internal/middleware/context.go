// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、CORS、访问日志、认证与幂等。
package middleware

import (
	"context"
	"net/http"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	traceIDKey
	principalKey
)

func withRequestID(ctx context.Context, requestID, traceID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	return ctx
}

// RequestIDFromContext 读取请求 ID，未经过 RequestID 中间件时为空
func RequestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

// TraceIDFromContext 读取上游 traceparent 中的 trace-id
func TraceIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(traceIDKey).(string)
	return s
}

// IDs 返回写响应信封所需的请求 ID 与追踪 ID
func IDs(r *http.Request) (requestID, traceID string) {
	return RequestIDFromContext(r.Context()), TraceIDFromContext(r.Context())
}

// WithPrincipal 将当前用户写入上下文
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext 从请求上下文中获取当前用户，匿名请求返回 nil
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey).(*domain.Principal)
	return p
}
