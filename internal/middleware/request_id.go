package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderTraceParent = "traceparent"

	maxRequestIDLen = 64
)

// RequestID 沿用调用方传入的合法 X-Request-ID，否则生成 UUID；
// 同时解析 W3C traceparent 得到 trace-id，两者写入上下文，请求 ID 回写响应头
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		ctx := withRequestID(r.Context(), rid, parseTraceParent(r.Header.Get(HeaderTraceParent)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// parseTraceParent 形如 00-<32 hex trace-id>-<16 hex parent-id>-<2 hex flags>，全零 trace-id 无效
func parseTraceParent(h string) string {
	parts := strings.Split(strings.TrimSpace(h), "-")
	if len(parts) != 4 || len(parts[0]) != 2 || len(parts[1]) != 32 || len(parts[2]) != 16 || len(parts[3]) != 2 {
		return ""
	}
	traceID := strings.ToLower(parts[1])
	if !isHex(traceID) || strings.Trim(traceID, "0") == "" {
		return ""
	}
	return traceID
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
