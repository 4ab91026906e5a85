package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/repo"
	"github.com/MorseWayne/boutique_shop/internal/seed"
)

func TestLoad_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryCatalog(nil, nil, zap.NewNop())
	catalog := seed.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	stats, err := load(ctx, catalog, store.Categories(), store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, loadStats{categories: 4, products: 10}, stats)

	stats, err = load(ctx, catalog, store.Categories(), store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, loadStats{skipped: 14}, stats)

	products, total, err := store.List(ctx, (&domain.FilterQuery{Category: "accessories", Sort: domain.SortPriceAsc}).Normalize())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "Embroidered Dupatta", products[0].Title)
}
