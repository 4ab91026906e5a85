package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/resp"
	"github.com/MorseWayne/boutique_shop/internal/service"
)

// SessionCookie 身份提供方写入的会话 Cookie
const SessionCookie = "session_token"

// bearerToken 依次从 Authorization 头和会话 Cookie 中读取令牌
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(h, prefix))
		return token, token != ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// AuthMiddleware 认证中间件，缺少或无效的令牌返回 401
func AuthMiddleware(verifier service.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID, traceID := IDs(r)

			token, ok := bearerToken(r)
			if !ok {
				logger.Debug("missing credentials", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, traceID)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("token validation failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)
				msg := "invalid token"
				switch {
				case errors.Is(err, service.ErrTokenExpired):
					msg = "token expired"
				case errors.Is(err, service.ErrTokenNotReady):
					msg = "token not ready"
				}
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, traceID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth 可选认证中间件
// 令牌有效时注入当前用户，否则按匿名请求继续处理
func OptionalAuth(verifier service.TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("optional auth token validation failed",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
