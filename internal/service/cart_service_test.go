package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/repo"
)

func TestCartService_AddAndUpdate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewCartService(repo.NewMemoryCartStore(), newSeededCatalog(), pub, zap.NewNop())

	// Kundan Jewelry Set: price 8000, stock 6
	cart, err := svc.AddItem(ctx, "u1", 8, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(16000)), "total = %s", cart.Total)

	cart, err = svc.AddItem(ctx, "u1", 10, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(8), cart.Lines[0].Product.ID)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(17500)))

	_, err = svc.AddItem(ctx, "u1", 8, 5)
	assert.ErrorIs(t, err, domain.ErrValidation, "2+5 exceeds stock 6")

	cart, err = svc.UpdateItem(ctx, "u1", 8, 6)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Count)

	_, err = svc.UpdateItem(ctx, "u1", 8, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateItem(ctx, "u1", 9, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound, "product 9 is not in the cart")

	_, err = svc.AddItem(ctx, "u1", 404, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddItem(ctx, "u1", 9, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, []events.Type{events.CartAdded, events.CartAdded}, pub.types())
}

func TestCartService_ConcurrentAddsRespectStock(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(repo.NewMemoryCartStore(), newSeededCatalog(), nil, zap.NewNop())

	// Kundan Jewelry Set: stock 6
	var wg sync.WaitGroup
	var accepted atomic.Int32
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, "u1", 8, 1); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(6), accepted.Load())
	count, err := svc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestCartService_RemoveClearCount(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(repo.NewMemoryCartStore(), newSeededCatalog(), nil, zap.NewNop())

	_, _ = svc.AddItem(ctx, "u1", 1, 1)
	_, _ = svc.AddItem(ctx, "u1", 7, 3)

	n, err := svc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	cart, err := svc.RemoveItem(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Count)

	require.NoError(t, svc.Clear(ctx, "u1"))
	cart, err = svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}

func TestCartService_SkipsVanishedProducts(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryCartStore()
	require.NoError(t, store.SetQuantity(ctx, "u1", 999, 1))
	require.NoError(t, store.SetQuantity(ctx, "u1", 3, 1))
	svc := NewCartService(store, newSeededCatalog(), nil, zap.NewNop())

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(3), cart.Lines[0].Product.ID)
}

func TestWishlistService(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewWishlistService(repo.NewMemoryWishlistStore(), newSeededCatalog(), pub, zap.NewNop())

	require.NoError(t, svc.Add(ctx, "u1", 5))
	require.NoError(t, svc.Add(ctx, "u1", 5))
	require.NoError(t, svc.Add(ctx, "u1", 2))

	err := svc.Add(ctx, "u1", 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Add(404) error = %v, want ErrNotFound", err)
	}

	products, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, ids(products))
	assert.Equal(t, []events.Type{events.WishlistAdded, events.WishlistAdded}, pub.types())

	require.NoError(t, svc.Remove(ctx, "u1", 2))
	products, _ = svc.List(ctx, "u1")
	assert.Equal(t, []int64{5}, ids(products))

	empty, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNavigationService(t *testing.T) {
	ctx := context.Background()
	carts := NewCartService(repo.NewMemoryCartStore(), newSeededCatalog(), nil, zap.NewNop())
	_, err := carts.AddItem(ctx, "c1", 7, 2)
	require.NoError(t, err)
	svc := NewNavigationService(carts, zap.NewNop())

	tests := []struct {
		name          string
		principal     *domain.Principal
		wantWishlist  bool
		wantAccount   domain.NavLink
		wantCartCount int
	}{
		{
			name:        "anonymous",
			principal:   nil,
			wantAccount: domain.NavLink{Label: "Sign In", Href: "/login"},
		},
		{
			name:          "customer",
			principal:     &domain.Principal{ID: "c1", Role: domain.RoleCustomer},
			wantWishlist:  true,
			wantAccount:   domain.NavLink{Label: "My Profile", Href: "/profile"},
			wantCartCount: 2,
		},
		{
			name:         "admin",
			principal:    &domain.Principal{ID: "a1", Role: domain.RoleAdmin},
			wantWishlist: true,
			wantAccount:  domain.NavLink{Label: "Admin Panel", Href: "/admin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := svc.Navigation(ctx, tt.principal)
			assert.Equal(t, tt.wantAccount, nav.Account)
			assert.Equal(t, tt.wantCartCount, nav.CartCount)
			assert.Equal(t, domain.NavLink{Label: "Home", Href: "/"}, nav.Links[0])
			assert.Equal(t, tt.wantWishlist, containsLink(nav.Links, "/wishlist"))
		})
	}
}

func TestNavigationService_CartUnavailable(t *testing.T) {
	carts := NewCartService(failingCartStore{}, newSeededCatalog(), nil, zap.NewNop())
	nav := NewNavigationService(carts, zap.NewNop()).Navigation(context.Background(), &domain.Principal{ID: "c1"})
	assert.Equal(t, 0, nav.CartCount)
	assert.Equal(t, "/profile", nav.Account.Href)
}

func containsLink(links []domain.NavLink, href string) bool {
	for _, l := range links {
		if l.Href == href {
			return true
		}
	}
	return false
}
