package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/api"
	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/limiter"
	"github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/repo"
	"github.com/MorseWayne/boutique_shop/internal/resp"
	"github.com/MorseWayne/boutique_shop/internal/seed"
	"github.com/MorseWayne/boutique_shop/internal/service"
	"github.com/MorseWayne/boutique_shop/internal/storage"
)

// staticVerifier 接受固定令牌
type staticVerifier struct{}

func (staticVerifier) Verify(token string) (*domain.Principal, error) {
	if token == "good-token" {
		return &domain.Principal{ID: "user-1", Name: "Asha", Role: domain.RoleCustomer}, nil
	}
	return nil, service.ErrInvalidToken
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, lim limiter.Limiter) http.Handler {
	t.Helper()
	lg := zap.NewNop()
	c := seed.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	catalog := repo.NewMemoryCatalog(c.Categories, c.Products, lg)
	pub := events.NopPublisher{}
	presenter := api.NewPresenter(storage.NewStaticResolver(""), lg)
	carts := service.NewCartService(repo.NewMemoryCartStore(), catalog, pub, lg)
	wishlist := service.NewWishlistService(repo.NewMemoryWishlistStore(), catalog, pub, lg)

	deps := &Dependencies{
		CatalogHandler:   api.NewCatalogHandler(service.NewCatalogService(catalog, nil, pub, 4, lg), presenter, lg),
		CategoryHandler:  api.NewCategoryHandler(service.NewCategoryService(catalog.Categories()), presenter, lg),
		CartHandler:      api.NewCartHandler(carts, wishlist, presenter, lg),
		SessionHandler:   api.NewSessionHandler(service.NewNavigationService(carts, lg)),
		Verifier:         staticVerifier{},
		Limiter:          lim,
		IdempotencyStore: cache.NewMemoryCache(),
		IdempotencyTTL:   time.Minute,
	}
	cfg := &config.Config{App: config.AppConfig{Env: "test", Version: "test"}}
	return New().Setup(cfg, deps, lg)
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/products?category=accessories&sort=price-asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.ProductListDTO
	decode(t, rec, &list)
	require.Len(t, list.Products, 3)
	assert.Equal(t, "Embroidered Dupatta", list.Products[0].Title)
	assert.Equal(t, "Kundan Jewelry Set", list.Products[2].Title)

	rec = serve(h, http.MethodGet, "/api/v1/products/featured", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var featured []api.ProductDTO
	decode(t, rec, &featured)
	assert.Len(t, featured, 4)

	rec = serve(h, http.MethodGet, "/api/v1/products/3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product api.ProductDTO
	decode(t, rec, &product)
	assert.Equal(t, "Custom Embroidered Anarkali", product.Title)

	rec = serve(h, http.MethodGet, "/api/v1/categories/custom-designs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var category api.CategoryDTO
	decode(t, rec, &category)
	assert.Equal(t, int64(2), category.ProductCount)

	rec = serve(h, http.MethodGet, "/api/v1/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, resp.CodeNotFound, decode(t, rec, nil).Code)
}

func TestRouter_SessionIsOptional(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var nav domain.Navigation
	decode(t, rec, &nav)
	assert.Nil(t, nav.Principal)

	rec = serve(h, http.MethodGet, "/api/v1/session", "", map[string]string{"Authorization": "Bearer good-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &nav)
	require.NotNil(t, nav.Principal)
	assert.Equal(t, "user-1", nav.Principal.ID)
	assert.Equal(t, "/profile", nav.Account.Href)
}

func TestRouter_CartRequiresAuth(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/wishlist", "", map[string]string{"Authorization": "Bearer bad-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/cart", "", map[string]string{"Authorization": "Bearer good-token"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartIdempotentAdd(t *testing.T) {
	h := newTestRouter(t, nil)
	headers := map[string]string{
		"Authorization":                 "Bearer good-token",
		"Content-Type":                  "application/json",
		middleware.HeaderIdempotencyKey: "add-1",
	}
	body := `{"productId": 7, "quantity": 2}`

	first := serve(h, http.MethodPost, "/api/v1/cart/items", body, headers)
	require.Equal(t, http.StatusOK, first.Code)
	second := serve(h, http.MethodPost, "/api/v1/cart/items", body, headers)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.HeaderIdempotentReplay))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := serve(h, http.MethodGet, "/api/v1/cart", "", headers)
	var cart api.CartDTO
	decode(t, rec, &cart)
	assert.Equal(t, 2, cart.Count, "replayed request must not add twice")

	rec = serve(h, http.MethodPut, "/api/v1/cart/items/7", `{"quantity": 5}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cart)
	assert.Equal(t, 5, cart.Count)
}

func TestRouter_RateLimit(t *testing.T) {
	lim := limiter.NewMemoryWindowLimiter(&limiter.Config{Rate: 2, Window: time.Minute, KeyPrefix: "test"})
	h := newTestRouter(t, lim)

	for i := 0; i < 2; i++ {
		rec := serve(h, http.MethodGet, "/api/v1/categories", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health check is not rate limited")
}
