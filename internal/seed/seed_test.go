package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(base)

	require.Len(t, c.Categories, 4)
	require.Len(t, c.Products, 10)

	slugs := map[string]bool{}
	for _, cat := range c.Categories {
		assert.False(t, slugs[cat.Slug], "duplicate slug %s", cat.Slug)
		slugs[cat.Slug] = true
	}

	for i, p := range c.Products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.NoError(t, p.Validate())
		assert.NotEmpty(t, c.CategorySlug(p), "product %s has no category", p.Title)
		if i > 0 {
			assert.True(t, p.CreatedAt.Before(c.Products[i-1].CreatedAt))
		}
	}

	assert.Equal(t, "accessories", c.CategorySlug(c.Products[9]))
	assert.Equal(t, base, c.Products[0].CreatedAt)
}

func TestNew_ReturnsIndependentCopies(t *testing.T) {
	a := New(time.Now())
	b := New(time.Now())

	a.Products[0].Images[0] = "/mutated.jpg"
	a.Categories[0].Name = "Mutated"

	assert.NotEqual(t, "/mutated.jpg", b.Products[0].Images[0])
	assert.NotEqual(t, "Mutated", b.Categories[0].Name)
}
