package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/resp"
)

// writeError 把服务层错误映射为统一响应
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	reqID, traceID := middleware.IDs(r)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, verr.Error(), reqID, traceID)
	case errors.Is(err, domain.ErrValidation):
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, traceID)
	case errors.Is(err, domain.ErrNotFound):
		resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "not found", reqID, traceID)
	case errors.Is(err, domain.ErrUnauthenticated):
		resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, traceID)
	case errors.Is(err, context.DeadlineExceeded):
		if !middleware.HandleTimeout(w, r) {
			resp.Error(w, http.StatusGatewayTimeout, resp.CodeTimeout, "request timeout", reqID, traceID)
		}
	default:
		logger.Error(op+" failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, op+" failed", reqID, traceID)
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	reqID, traceID := middleware.IDs(r)
	resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, msg, reqID, traceID)
}

func ok(w http.ResponseWriter, r *http.Request, data any) {
	reqID, traceID := middleware.IDs(r)
	resp.OK(w, data, reqID, traceID)
}

// requirePrincipal 读取当前用户，路由层未挂认证时返回 401
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		reqID, traceID := middleware.IDs(r)
		resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, traceID)
		return nil, false
	}
	return p, true
}
