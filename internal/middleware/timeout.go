package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MorseWayne/boutique_shop/internal/resp"
)

// Timeout 为请求上下文设置截止时间。存储层按 ctx 返回 DeadlineExceeded，
// 处理器再经 HandleTimeout 写出 504 信封
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HandleTimeout 请求上下文已超时时写出 504 并返回 true
func HandleTimeout(w http.ResponseWriter, r *http.Request) bool {
	if !errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		return false
	}
	reqID, traceID := IDs(r)
	resp.Error(w, resp.HTTPStatusFromCode(resp.CodeTimeout), resp.CodeTimeout, "request timeout", reqID, traceID)
	return true
}
