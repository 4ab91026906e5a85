package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
	}{
		{"newest", SortNewest},
		{"price-asc", SortPriceAsc},
		{"price-desc", SortPriceDesc},
		{"popular", SortPopular},
		{"", SortNewest},
		{"cheapest", SortNewest},
		{" price-asc ", SortPriceAsc},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSortKey(tt.in), "input %q", tt.in)
	}
}

func TestFilterQuery_Normalize(t *testing.T) {
	q := (&FilterQuery{Search: "  saree ", Category: " accessories", Sort: "bogus", Page: -3, PageSize: 50}).Normalize()

	assert.Equal(t, "saree", q.Search)
	assert.Equal(t, "accessories", q.Category)
	assert.Equal(t, SortNewest, q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, PageSize, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	q.Page = 3
	assert.Equal(t, 24, q.Offset())
}

func TestFilterQuery_HugePageDoesNotOverflow(t *testing.T) {
	q := (&FilterQuery{Page: math.MaxInt}).Normalize()
	assert.Equal(t, MaxPage, q.Page)
	assert.GreaterOrEqual(t, q.Offset(), 0)
	assert.LessOrEqual(t, q.Offset(), math.MaxInt-PageSize)

	raw := &FilterQuery{Page: math.MaxInt, PageSize: PageSize}
	assert.Equal(t, math.MaxInt, raw.Offset())
}

func TestFilterQuery_Matches(t *testing.T) {
	p := &Product{
		Title:       "Designer Bridal Saree",
		Description: "Elegant silk bridal saree",
		Price:       decimal.NewFromInt(35000),
	}
	min := decimal.NewFromInt(35000)
	max := decimal.NewFromInt(34999)

	tests := []struct {
		name string
		q    FilterQuery
		want bool
	}{
		{"empty query", FilterQuery{}, true},
		{"case-insensitive title", FilterQuery{Search: "SAREE"}, true},
		{"description only", FilterQuery{Search: "elegant"}, true},
		{"no match", FilterQuery{Search: "lehenga"}, false},
		{"inclusive min", FilterQuery{MinPrice: &min}, true},
		{"max below price", FilterQuery{MaxPrice: &max}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(p))
		})
	}
}

func TestNewResultPage(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		wantPages int
		wantMore  bool
	}{
		{"empty", 0, 1, 0, false},
		{"exactly one page", 12, 1, 1, false},
		{"one over", 13, 1, 2, true},
		{"last page", 13, 2, 2, false},
		{"beyond range", 10, 99, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := (&FilterQuery{Page: tt.page}).Normalize()
			rp := NewResultPage(nil, tt.total, q)
			assert.Equal(t, tt.wantPages, rp.TotalPages)
			assert.Equal(t, tt.page, rp.CurrentPage)
			assert.Equal(t, tt.wantMore, rp.HasMore())
			assert.NotNil(t, rp.Products)
		})
	}
}
