// Package resp 提供统一的 JSON 响应结构与业务错误码。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码
const (
	CodeOK              = 0
	CodeInvalidParam    = 40000
	CodeUnauthorized    = 40100
	CodeForbidden       = 40300
	CodeNotFound        = 40400
	CodeTooManyRequests = 42900
	CodeInternalError   = 50000
	CodeTimeout         = 50400
)

// Body 统一响应体
type Body struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// OK 写出成功响应
func OK(w http.ResponseWriter, data any, requestID, traceID string) {
	write(w, http.StatusOK, Body{
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// Error 写出错误响应
func Error(w http.ResponseWriter, status, code int, message, requestID, traceID string) {
	write(w, status, Body{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// HTTPStatusFromCode 将业务错误码映射为 HTTP 状态码
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
