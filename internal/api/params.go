// Package api 提供商品目录相关的HTTP API处理器实现。
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

type pathParamsKey struct{}

// WithPathParams 由路由层写入路径参数
func WithPathParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, pathParamsKey{}, params)
}

// PathParam 读取路径参数
func PathParam(r *http.Request, name string) string {
	if params, ok := r.Context().Value(pathParamsKey{}).(map[string]string); ok {
		return params[name]
	}
	return ""
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(PathParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// ParseFilterQuery 解析商品列表的查询参数
// 无法解析的价格被忽略，无法解析的页码按第 1 页处理，limit 只接受不生效
func ParseFilterQuery(values url.Values) *domain.FilterQuery {
	q := &domain.FilterQuery{
		Search:   values.Get("search"),
		Category: values.Get("category"),
		MinPrice: parsePrice(values.Get("minPrice")),
		MaxPrice: parsePrice(values.Get("maxPrice")),
		Sort:     domain.ParseSortKey(values.Get("sort")),
	}
	if page, err := strconv.Atoi(strings.TrimSpace(values.Get("page"))); err == nil {
		q.Page = page
	}
	return q.Normalize()
}

func parsePrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
