package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter kafka.Writer 的子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 把事件写入 Kafka，消息 key 为商品ID以保证同一商品有序
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ProductID, 10)),
		Value: data,
		Time:  event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("publish activity event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// MessageHandler 消息处理函数
type MessageHandler func(ctx context.Context, key, value []byte) error

// messageReader kafka.Reader 的子集
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer 按消费组读取事件
type KafkaConsumer struct {
	reader     messageReader
	logger     *zap.Logger
	retryDelay time.Duration
}

// NewKafkaConsumer 创建 Kafka 消费者
func NewKafkaConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{reader: reader, logger: logger, retryDelay: time.Second}
}

// Consume 循环读取直到 ctx 结束。处理器返回 nil 后才提交位点；
// 返回错误时按退避重试同一条消息，位点是累积提交的，跳过它会连带确认这条消息
func (c *KafkaConsumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Warn("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handleWithRetry(ctx, handler, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("kafka commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handleWithRetry 直到处理成功才返回 nil；ctx 结束时返回 ctx.Err()
func (c *KafkaConsumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg kafka.Message) error {
	delay := c.retryDelay
	if delay <= 0 {
		delay = time.Second
	}
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return nil
		}
		c.logger.Error("kafka message handling failed, retrying",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
