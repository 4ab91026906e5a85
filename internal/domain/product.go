// Package domain 定义商品目录相关的业务领域模型和核心业务规则。
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImage 商品没有任何图片时使用的占位图
const PlaceholderImage = "/images/placeholder-product.jpg"

// Product 表示商品领域模型
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Variants    []Variant       `json:"variants,omitempty"`
	CategoryID  int64           `json:"category_id"`
	Category    *CategoryRef    `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Variant 商品可选规格，例如尺码、颜色
type Variant struct {
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// CategoryRef 商品所属分类的摘要
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate 校验商品的不变量
func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

// IsInStock 判断商品是否有库存
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// DisplayImages 返回用于展示的图片列表，为空时返回占位图
func (p *Product) DisplayImages() []string {
	if len(p.Images) == 0 {
		return []string{PlaceholderImage}
	}
	return p.Images
}

// EncodeImages 将图片列表编码为 JSON 字符串（数据库与接口使用的格式）
func EncodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

// DecodeImages 解析 JSON 字符串形式的图片列表
// 空串视为没有图片
func DecodeImages(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

// EncodeVariants 将规格列表编码为 JSON 字符串，没有规格时返回空串
func EncodeVariants(variants []Variant) (string, error) {
	if len(variants) == 0 {
		return "", nil
	}
	b, err := json.Marshal(variants)
	if err != nil {
		return "", fmt.Errorf("encode variants: %w", err)
	}
	return string(b), nil
}

// DecodeVariants 解析 JSON 字符串形式的规格列表
func DecodeVariants(raw string) ([]Variant, error) {
	if raw == "" {
		return nil, nil
	}
	var variants []Variant
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return variants, nil
}
