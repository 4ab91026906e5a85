package catalogview

import "github.com/MorseWayne/boutique_shop/internal/domain"

// Action 用户操作或请求结果
type Action interface {
	isAction()
}

// FiltersChanged 任一过滤或排序字段变化
type FiltersChanged struct {
	Filters Filters
}

// LoadMoreRequested 用户点击"加载更多"
type LoadMoreRequested struct{}

// PageLoaded 某代请求成功返回
type PageLoaded struct {
	Generation uint64
	Page       Page
}

// LoadFailed 某代请求失败
type LoadFailed struct {
	Generation uint64
	Err        error
}

func (FiltersChanged) isAction()    {}
func (LoadMoreRequested) isAction() {}
func (PageLoaded) isAction()        {}
func (LoadFailed) isAction()        {}

// Reduce 根据当前状态与动作计算新状态，需要拉取数据时返回请求
// 纯函数：不修改 s，也不持有 s 中切片的可写引用
func Reduce(s State, a Action) (State, *Request) {
	switch a := a.(type) {
	case FiltersChanged:
		return reduceFiltersChanged(s, a)
	case LoadMoreRequested:
		return reduceLoadMore(s)
	case PageLoaded:
		return reducePageLoaded(s, a)
	case LoadFailed:
		return reduceLoadFailed(s, a)
	default:
		return s, nil
	}
}

func reduceFiltersChanged(s State, a FiltersChanged) (State, *Request) {
	filters := a.Filters
	filters.Sort = domain.ParseSortKey(string(filters.Sort))

	// 条件未变且已有结果或请求在途时不重复拉取
	if s.Phase != Idle && filters == s.Filters {
		return s, nil
	}

	next := State{
		Phase:      LoadingReset,
		Filters:    filters,
		NextPage:   1,
		HasMore:    s.HasMore,
		TotalItems: s.TotalItems,
		Generation: s.Generation + 1,
		restore:    s.snapshot(),
	}
	return next, &Request{Generation: next.Generation, Filters: filters, Page: 1}
}

func reduceLoadMore(s State) (State, *Request) {
	if !s.CanLoadMore() {
		return s, nil
	}

	next := s
	next.Phase = LoadingAppend
	next.Generation = s.Generation + 1
	next.Err = nil
	next.restore = s.snapshot()
	return next, &Request{Generation: next.Generation, Filters: s.Filters, Page: s.NextPage, Append: true}
}

func reducePageLoaded(s State, a PageLoaded) (State, *Request) {
	if !s.Phase.IsLoading() || a.Generation != s.Generation {
		return s, nil
	}

	var base []Product
	if s.Phase == LoadingAppend {
		base = s.Products
	}
	products := appendUnique(base, a.Page.Products)

	hasMore := a.Page.Pagination.CurrentPage < a.Page.Pagination.TotalPages
	phase := Loaded
	if !hasMore {
		phase = Exhausted
	}
	return State{
		Phase:      phase,
		Filters:    s.Filters,
		Products:   products,
		NextPage:   s.NextPage + 1,
		HasMore:    hasMore,
		TotalItems: a.Page.Pagination.TotalItems,
		Generation: s.Generation,
	}, nil
}

func reduceLoadFailed(s State, a LoadFailed) (State, *Request) {
	if !s.Phase.IsLoading() || a.Generation != s.Generation {
		return s, nil
	}

	next := State{
		Phase:      Idle,
		NextPage:   1,
		TotalItems: s.TotalItems,
		Generation: s.Generation,
		Err:        a.Err,
	}
	if r := s.restore; r != nil {
		next.Phase = r.phase
		next.Filters = r.filters
		next.Products = r.products
		next.NextPage = r.nextPage
		next.HasMore = r.hasMore
	}
	return next, nil
}

// appendUnique 复制 base 并追加其中不存在的商品
func appendUnique(base, page []Product) []Product {
	out := make([]Product, 0, len(base)+len(page))
	seen := make(map[int64]struct{}, len(base)+len(page))
	for _, p := range base {
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range page {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
