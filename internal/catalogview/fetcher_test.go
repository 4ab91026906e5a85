package catalogview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

func TestHTTPFetcher_FetchPage(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProductsPath, r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{
			"products":[{"id":8,"title":"Kundan Jewelry Set","price":8000,"images":"[\"/k.jpg\"]","category":{"name":"Accessories","slug":"accessories"},"stock":6}],
			"pagination":{"currentPage":2,"totalPages":2,"totalItems":13}}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, time.Second)
	p, err := f.FetchPage(context.Background(), Filters{Category: "accessories", Sort: domain.SortPriceAsc}, 2)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "category=accessories")
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "sort=price-asc")
	require.Len(t, p.Products, 1)
	assert.Equal(t, "Kundan Jewelry Set", p.Products[0].Title)
	assert.Equal(t, "accessories", p.Products[0].Category.Slug)
	assert.Equal(t, []string{"/k.jpg"}, p.Products[0].ImageURLs())
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalItems: 13}, p.Pagination)
}

func TestHTTPFetcher_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"code":50000,"message":"list products failed"}`, wantTransient: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"code":42900,"message":"too many requests"}`, wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"code":40000,"message":"bad"}`, wantTransient: false},
		{name: "garbage body", status: http.StatusOK, body: `<html>`, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPFetcher(srv.URL, time.Second).FetchPage(context.Background(), Filters{}, 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, IsTransient(err))
		})
	}
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(url, 200*time.Millisecond).FetchPage(context.Background(), Filters{}, 1)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
