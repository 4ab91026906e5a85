package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// PageSize 商品列表固定每页数量
const PageSize = 12

// MaxPage 页码上限，保证偏移量计算不溢出
const MaxPage = math.MaxInt / PageSize

// SortKey 商品列表排序方式
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortPopular   SortKey = "popular"
)

// ParseSortKey 解析排序参数，未知取值回退为 newest
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular:
		return k
	default:
		return SortNewest
	}
}

// FilterQuery 商品列表查询条件，所有条件按 AND 组合
type FilterQuery struct {
	Search   string           // 标题或描述的大小写不敏感子串
	Category string           // 分类 slug，精确匹配
	MinPrice *decimal.Decimal // 价格下限（含）
	MaxPrice *decimal.Decimal // 价格上限（含）
	Sort     SortKey
	Page     int // 从1开始
	PageSize int
}

// Normalize 规范化查询条件并返回自身
func (q *FilterQuery) Normalize() *FilterQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	q.Sort = ParseSortKey(string(q.Sort))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	q.PageSize = PageSize
	return q
}

// Offset 返回当前页的偏移量，溢出时饱和为 math.MaxInt
func (q *FilterQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// Matches 判断商品是否满足过滤条件（不含分类，分类需结合分类数据判断）
func (q *FilterQuery) Matches(p *Product) bool {
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	return true
}

// ResultPage 一页查询结果
type ResultPage struct {
	Products    []*Product
	TotalItems  int64
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// NewResultPage 根据总数计算分页信息
// 请求页超出范围时 Products 为空，TotalPages 仍按完整结果集计算
func NewResultPage(products []*Product, total int64, q *FilterQuery) *ResultPage {
	if products == nil {
		products = []*Product{}
	}
	size := q.PageSize
	if size <= 0 {
		size = PageSize
	}
	return &ResultPage{
		Products:    products,
		TotalItems:  total,
		TotalPages:  int((total + int64(size) - 1) / int64(size)),
		CurrentPage: q.Page,
		PageSize:    size,
	}
}

// HasMore 是否还有下一页
func (r *ResultPage) HasMore() bool {
	return r.CurrentPage < r.TotalPages
}
