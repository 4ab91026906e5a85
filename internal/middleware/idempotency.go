// Package middleware 提供幂等性中间件
package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/cache"
)

const (
	// HeaderIdempotencyKey 客户端提供的幂等键
	HeaderIdempotencyKey = "X-Idempotency-Key"
	// HeaderIdempotentReplay 标记响应来自缓存重放
	HeaderIdempotentReplay = "Idempotent-Replayed"
)

// storedResponse 已完成请求的响应快照
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency 对携带幂等键的写请求重放首次响应
// 键按当前用户、方法、路径隔离；5xx 响应不缓存，客户端可以重试
func Idempotency(store cache.Cache, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cacheKey := idempotencyCacheKey(r, key)
			var prev storedResponse
			if err := store.Get(r.Context(), cacheKey, &prev); err == nil {
				w.Header().Set("Content-Type", prev.ContentType)
				w.Header().Set(HeaderIdempotentReplay, "true")
				w.WriteHeader(prev.Status)
				_, _ = w.Write(prev.Body)
				return
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				return
			}
			snapshot := storedResponse{
				Status:      rec.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := store.Set(r.Context(), cacheKey, snapshot, ttl); err != nil {
				logger.Warn("idempotency snapshot not stored",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
			}
		})
	}
}

func idempotencyCacheKey(r *http.Request, key string) string {
	owner := ""
	if p := PrincipalFromContext(r.Context()); p != nil {
		owner = p.ID
	}
	sum := sha256.Sum256([]byte(owner + "\x00" + r.Method + "\x00" + r.URL.Path + "\x00" + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// recordingWriter 同时写出并记录响应
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
