// Package seed 提供精品店的初始商品目录数据。
package seed

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// Catalog 初始目录
type Catalog struct {
	Categories []*domain.Category
	Products   []*domain.Product
}

type productSeed struct {
	title       string
	description string
	price       int64
	images      []string
	category    string
	stock       int
	variants    []domain.Variant
	featured    bool
}

var categorySeeds = []domain.Category{
	{Name: "Bridal Wear", Slug: "bridal-wear", Description: "Exquisite bridal collections for your special day", Image: "/images/categories/bridal.jpg"},
	{Name: "Custom Designs", Slug: "custom-designs", Description: "Bespoke fashion tailored to your unique style", Image: "/images/categories/custom.jpg"},
	{Name: "Traditional Wear", Slug: "traditional-wear", Description: "Classic traditional Indian attire", Image: "/images/categories/traditional.jpg"},
	{Name: "Accessories", Slug: "accessories", Description: "Complete your look with stunning accessories", Image: "/images/categories/accessories.jpg"},
}

var productSeeds = []productSeed{
	{
		title:       "Royal Bridal Lehenga",
		description: "Stunning red and gold bridal lehenga with intricate embroidery and sequin work. Perfect for your wedding day.",
		price:       45000,
		images:      []string{"/images/products/bridal-lehenga-1.jpg", "/images/products/bridal-lehenga-2.jpg"},
		category:    "bridal-wear",
		stock:       3,
		variants: []domain.Variant{
			{Type: "Size", Options: []string{"S", "M", "L", "XL", "Custom"}},
			{Type: "Color", Options: []string{"Red", "Maroon", "Pink"}},
		},
		featured: true,
	},
	{
		title:       "Designer Bridal Saree",
		description: "Elegant silk bridal saree with zari work and traditional motifs. Handcrafted by expert artisans.",
		price:       35000,
		images:      []string{"/images/products/bridal-saree-1.jpg"},
		category:    "bridal-wear",
		stock:       5,
		variants:    []domain.Variant{{Type: "Color", Options: []string{"Red", "Gold", "Green", "Blue"}}},
		featured:    true,
	},
	{
		title:       "Custom Embroidered Anarkali",
		description: "Beautifully tailored Anarkali suit with custom embroidery patterns designed as per your preference.",
		price:       18000,
		images:      []string{"/images/products/anarkali-1.jpg", "/images/products/anarkali-2.jpg"},
		category:    "custom-designs",
		stock:       10,
		variants: []domain.Variant{
			{Type: "Size", Options: []string{"S", "M", "L", "XL", "XXL"}},
			{Type: "Color", Options: []string{"Pink", "Blue", "Yellow", "Green"}},
		},
	},
	{
		title:       "Bespoke Party Gown",
		description: "Elegant floor-length gown with your choice of fabric, color, and embellishments. Made to measure.",
		price:       25000,
		images:      []string{"/images/products/gown-1.jpg"},
		category:    "custom-designs",
		stock:       8,
		variants: []domain.Variant{
			{Type: "Size", Options: []string{"Custom"}},
			{Type: "Fabric", Options: []string{"Silk", "Georgette", "Velvet", "Satin"}},
		},
		featured: true,
	},
	{
		title:       "Silk Kanjivaram Saree",
		description: "Pure silk Kanjivaram saree with traditional temple border and rich pallu. A timeless classic.",
		price:       15000,
		images:      []string{"/images/products/kanjivaram-1.jpg"},
		category:    "traditional-wear",
		stock:       12,
	},
	{
		title:       "Banarasi Silk Saree",
		description: "Luxurious Banarasi silk with brocade work and intricate gold patterns. Perfect for weddings and festivals.",
		price:       12000,
		images:      []string{"/images/products/banarasi-1.jpg"},
		category:    "traditional-wear",
		stock:       15,
		featured:    true,
	},
	{
		title:       "Traditional Salwar Kameez",
		description: "Comfortable and elegant salwar kameez with dupatta. Ideal for daily wear and formal occasions.",
		price:       5000,
		images:      []string{"/images/products/salwar-1.jpg"},
		category:    "traditional-wear",
		stock:       20,
		variants: []domain.Variant{
			{Type: "Size", Options: []string{"S", "M", "L", "XL"}},
			{Type: "Color", Options: []string{"White", "Cream", "Peach", "Mint"}},
		},
	},
	{
		title:       "Kundan Jewelry Set",
		description: "Exquisite kundan necklace, earring, and maangtikka set. Perfect complement to bridal wear.",
		price:       8000,
		images:      []string{"/images/products/kundan-set-1.jpg"},
		category:    "accessories",
		stock:       6,
	},
	{
		title:       "Designer Clutch Bag",
		description: "Elegant beaded clutch with metallic finish. Perfect for weddings and parties.",
		price:       2500,
		images:      []string{"/images/products/clutch-1.jpg"},
		category:    "accessories",
		stock:       25,
		variants:    []domain.Variant{{Type: "Color", Options: []string{"Gold", "Silver", "Rose Gold", "Black"}}},
	},
	{
		title:       "Embroidered Dupatta",
		description: "Beautiful embroidered dupatta to complete your ethnic ensemble. Available in multiple colors.",
		price:       1500,
		images:      []string{"/images/products/dupatta-1.jpg"},
		category:    "accessories",
		stock:       30,
		variants:    []domain.Variant{{Type: "Color", Options: []string{"Red", "Pink", "Blue", "Green", "Orange"}}},
	},
}

// New 构建初始目录
// 分类与商品的 ID 按声明顺序从 1 开始编号；
// 商品创建时间从 base 起每个递减一小时，因此越靠前的商品越新
func New(base time.Time) *Catalog {
	c := &Catalog{}
	ids := make(map[string]int64, len(categorySeeds))
	for i := range categorySeeds {
		cat := categorySeeds[i]
		cat.ID = int64(i + 1)
		cat.CreatedAt = base
		ids[cat.Slug] = cat.ID
		c.Categories = append(c.Categories, &cat)
	}

	for i, s := range productSeeds {
		created := base.Add(-time.Duration(i) * time.Hour)
		c.Products = append(c.Products, &domain.Product{
			ID:          int64(i + 1),
			Title:       s.title,
			Description: s.description,
			Price:       decimal.NewFromInt(s.price),
			Images:      append([]string(nil), s.images...),
			Variants:    s.variants,
			CategoryID:  ids[s.category],
			Stock:       s.stock,
			Featured:    s.featured,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return c
}

// CategorySlug 返回商品所属分类的 slug
func (c *Catalog) CategorySlug(p *domain.Product) string {
	for _, cat := range c.Categories {
		if cat.ID == p.CategoryID {
			return cat.Slug
		}
	}
	return ""
}
