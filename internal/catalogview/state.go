// Package catalogview 实现商品列表页的客户端状态机：
// 过滤条件变化时重置，"加载更多"时追加，过期响应按请求代数丢弃。
package catalogview

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// Phase 列表所处阶段
type Phase int

const (
	Idle Phase = iota
	LoadingReset
	LoadingAppend
	Loaded
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case LoadingReset:
		return "loading(reset)"
	case LoadingAppend:
		return "loading(append)"
	case Loaded:
		return "loaded"
	case Exhausted:
		return "exhausted"
	default:
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// IsLoading 是否有请求在途
func (p Phase) IsLoading() bool {
	return p == LoadingReset || p == LoadingAppend
}

// Filters 列表过滤条件，不含页码
// 价格保留用户输入的原始字符串，无法解析时由服务端忽略
type Filters struct {
	Search   string
	Category string
	MinPrice string
	MaxPrice string
	Sort     domain.SortKey
}

// Values 生成指定页的查询参数
func (f Filters) Values(page int) url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.MinPrice != "" {
		v.Set("minPrice", f.MinPrice)
	}
	if f.MaxPrice != "" {
		v.Set("maxPrice", f.MaxPrice)
	}
	if f.Sort != "" {
		v.Set("sort", string(f.Sort))
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(domain.PageSize))
	return v
}

// Product 列表中的商品摘要
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      string          `json:"images"`
	Category    *CategoryRef    `json:"category"`
	Stock       int             `json:"stock"`
}

// CategoryRef 商品所属分类
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ImageURLs 解码 JSON 字符串形式的图片列表，解析失败返回空
func (p Product) ImageURLs() []string {
	var urls []string
	if err := json.Unmarshal([]byte(p.Images), &urls); err != nil {
		return nil
	}
	return urls
}

// Pagination 服务端返回的分页信息
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// Page 一页列表数据
type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Request 状态机要求发出的一次拉取
type Request struct {
	Generation uint64
	Filters    Filters
	Page       int
	Append     bool
}

// settled 最近一次稳定状态，请求失败时恢复
type settled struct {
	phase    Phase
	filters  Filters
	products []Product
	nextPage int
	hasMore  bool
}

// State 列表视图状态，作为值传递，Reduce 不修改入参
type State struct {
	Phase    Phase
	Filters  Filters
	Products []Product
	// NextPage "加载更多"时请求的页码
	NextPage   int
	HasMore    bool
	TotalItems int64
	Generation uint64
	// Err 最近一次失败，供界面给出非阻塞提示
	Err error

	restore *settled
}

// Initial 初始状态
func Initial() State {
	return State{Phase: Idle, NextPage: 1}
}

// IsEmpty 已加载完成且没有任何商品
func (s State) IsEmpty() bool {
	return (s.Phase == Loaded || s.Phase == Exhausted) && len(s.Products) == 0
}

// CanLoadMore 是否接受"加载更多"
func (s State) CanLoadMore() bool {
	return s.Phase == Loaded && s.HasMore
}

func (s State) snapshot() *settled {
	if s.Phase.IsLoading() {
		return s.restore
	}
	return &settled{
		phase:    s.Phase,
		filters:  s.Filters,
		products: s.Products,
		nextPage: s.NextPage,
		hasMore:  s.HasMore,
	}
}
