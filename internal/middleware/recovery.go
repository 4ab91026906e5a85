package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/resp"
)

// Recovery 把处理器 panic 转为 500 信封；http.ErrAbortHandler 继续上抛交给 net/http 中断连接
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				reqID, traceID := IDs(r)
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", reqID),
					zap.Stack("stack"),
				)
				resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "internal server error", reqID, traceID)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
