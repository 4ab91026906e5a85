// Package events 定义商品互动事件，以及把事件投递到热度排行的发布者与消费者。
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type 互动事件类型
type Type string

const (
	ProductViewed Type = "product_viewed"
	WishlistAdded Type = "wishlist_added"
	CartAdded     Type = "cart_added"
)

// Weight 事件对热度的贡献
func (t Type) Weight() float64 {
	switch t {
	case ProductViewed:
		return 1
	case WishlistAdded:
		return 3
	case CartAdded:
		return 5
	default:
		return 0
	}
}

// ActivityEvent 用户与商品的一次互动
type ActivityEvent struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ProductID  int64     `json:"product_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewActivityEvent 创建事件，userID 为空表示匿名
func NewActivityEvent(t Type, productID int64, userID string) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.NewString(),
		Type:       t,
		ProductID:  productID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// ErrInvalidEvent 事件内容不合法，重试也无法处理
var ErrInvalidEvent = errors.New("invalid activity event")

// Validate 校验事件
func (e ActivityEvent) Validate() error {
	if e.Type.Weight() == 0 {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.ProductID <= 0 {
		return fmt.Errorf("%w: product id %d", ErrInvalidEvent, e.ProductID)
	}
	return nil
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
	Close() error
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event ActivityEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
