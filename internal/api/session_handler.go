package api

import (
	"net/http"

	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/service"
)

// SessionHandler 会话导航处理器
type SessionHandler struct {
	navigation service.NavigationService
}

// NewSessionHandler 创建会话处理器实例
func NewSessionHandler(navigation service.NavigationService) *SessionHandler {
	return &SessionHandler{navigation: navigation}
}

// Navigation 返回当前会话的用户信息与导航链接，匿名访问同样可用
// GET /api/v1/session
func (h *SessionHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	ok(w, r, h.navigation.Navigation(r.Context(), principal))
}
