package domain

import (
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Category 表示商品分类
// Slug 一旦被商品引用即不可修改
type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Image        string    `json:"image,omitempty"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ref 返回分类摘要
func (c *Category) Ref() *CategoryRef {
	return &CategoryRef{Name: c.Name, Slug: c.Slug}
}

// IsValidSlug 判断 slug 是否为 URL 安全的小写连字符格式
func IsValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}
