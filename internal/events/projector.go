package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/ranking"
)

// Projector 把互动事件累加到热度排行
type Projector struct {
	ranker ranking.Ranker
	logger *zap.Logger
}

// NewProjector 创建投影器
func NewProjector(ranker ranking.Ranker, logger *zap.Logger) *Projector {
	return &Projector{ranker: ranker, logger: logger}
}

// Apply 处理单个事件
func (p *Projector) Apply(ctx context.Context, event ActivityEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if err := p.ranker.Incr(ctx, event.ProductID, event.Type.Weight()); err != nil {
		return fmt.Errorf("project %s for product %d: %w", event.Type, event.ProductID, err)
	}
	return nil
}

// HandleMessage 作为消息处理函数。无法解析或不合法的消息记录后丢弃并返回 nil，
// 只有排行写入失败才返回错误，由消费者重试或拒绝
func (p *Projector) HandleMessage(ctx context.Context, key, value []byte) error {
	var event ActivityEvent
	if err := json.Unmarshal(value, &event); err != nil {
		p.logger.Warn("dropping malformed activity event", zap.ByteString("key", key), zap.Error(err))
		return nil
	}
	if err := event.Validate(); err != nil {
		p.logger.Warn("dropping invalid activity event", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := p.Apply(ctx, event); err != nil {
		p.logger.Warn("activity event not projected",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("product_id", event.ProductID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RankingPublisher 在进程内直接更新热度，未启用 Kafka 时使用
type RankingPublisher struct {
	projector *Projector
}

// NewRankingPublisher 创建进程内发布者
func NewRankingPublisher(ranker ranking.Ranker, logger *zap.Logger) *RankingPublisher {
	return &RankingPublisher{projector: NewProjector(ranker, logger)}
}

func (p *RankingPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	return p.projector.Apply(ctx, event)
}

func (p *RankingPublisher) Close() error { return nil }
