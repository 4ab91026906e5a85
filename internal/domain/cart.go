package domain

import (
	"github.com/shopspring/decimal"
)

// CartItem 购物车中的一项（持久化形态）
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLine 购物车中带商品信息的一行
type CartLine struct {
	Product  *Product        `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Cart 用户购物车视图
type Cart struct {
	UserID string          `json:"user_id"`
	Lines  []*CartLine     `json:"lines"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// NewCart 根据行项目计算件数与总价
func NewCart(userID string, lines []*CartLine) *Cart {
	c := &Cart{UserID: userID, Lines: lines, Total: decimal.Zero}
	if c.Lines == nil {
		c.Lines = []*CartLine{}
	}
	for _, l := range c.Lines {
		l.Subtotal = l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		c.Count += l.Quantity
		c.Total = c.Total.Add(l.Subtotal)
	}
	return c
}

// ValidateQuantity 校验购买数量在 1..stock 之间
func ValidateQuantity(p *Product, quantity int) error {
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if quantity > p.Stock {
		return &ValidationError{Field: "quantity", Reason: "exceeds available stock"}
	}
	return nil
}
