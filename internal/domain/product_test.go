package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_DisplayImages(t *testing.T) {
	p := &Product{}
	assert.Equal(t, []string{PlaceholderImage}, p.DisplayImages())

	p.Images = []string{"/images/products/gown-1.jpg"}
	assert.Equal(t, []string{"/images/products/gown-1.jpg"}, p.DisplayImages())
}

func TestProduct_Validate(t *testing.T) {
	p := &Product{Price: decimal.NewFromInt(-1)}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	p = &Product{Price: decimal.Zero, Stock: -1}
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p = &Product{Price: decimal.NewFromInt(100), Stock: 0}
	assert.NoError(t, p.Validate())
}

func TestImagesEncoding(t *testing.T) {
	raw, err := EncodeImages([]string{"/a.jpg", "/b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, `["/a.jpg","/b.jpg"]`, raw)

	empty, err := EncodeImages(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, empty)

	images, err := DecodeImages(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, images)

	_, err = DecodeImages("not json")
	assert.Error(t, err)
}

func TestValidateQuantity(t *testing.T) {
	p := &Product{Stock: 3}
	assert.ErrorIs(t, ValidateQuantity(p, 0), ErrValidation)
	assert.ErrorIs(t, ValidateQuantity(p, 4), ErrValidation)
	assert.NoError(t, ValidateQuantity(p, 3))
}

func TestNewCart(t *testing.T) {
	lines := []*CartLine{
		{Product: &Product{ID: 1, Price: decimal.NewFromInt(1500)}, Quantity: 2},
		{Product: &Product{ID: 2, Price: decimal.RequireFromString("2500.50")}, Quantity: 1},
	}
	c := NewCart("u1", lines)

	assert.Equal(t, 3, c.Count)
	assert.True(t, c.Total.Equal(decimal.RequireFromString("5500.50")), "total %s", c.Total)
	assert.True(t, c.Lines[0].Subtotal.Equal(decimal.NewFromInt(3000)))
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("bridal-wear"))
	assert.True(t, IsValidSlug("accessories"))
	assert.False(t, IsValidSlug("Bridal Wear"))
	assert.False(t, IsValidSlug("-trailing-"))
}
