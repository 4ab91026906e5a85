package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	rabbitRoutingPrefix = "activity."
	rabbitBindingKey    = "activity.#"
	rabbitConsumerTag   = "popularity-projector"
)

// publishChannel amqp.Channel 的发布子集
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQPublisher 把事件发布到 topic 交换机，路由键为 activity.<type>，开启发布确认
type RabbitMQPublisher struct {
	mu             sync.Mutex
	ch             publishChannel
	confirms       <-chan amqp.Confirmation
	exchange       string
	confirmTimeout time.Duration
	closers        []func() error
}

// NewRabbitMQPublisher 建立连接并声明交换机
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &RabbitMQPublisher{
		ch:             ch,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		exchange:       exchange,
		confirmTimeout: 5 * time.Second,
		closers:        []func() error{ch.Close, conn.Close},
	}, nil
}

// Publish 发布并等待 broker 确认；同一通道上的确认按发布顺序返回，因此串行发布
func (p *RabbitMQPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, rabbitRoutingPrefix+string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("publish activity event: %w", err)
	}
	if p.confirms == nil {
		return nil
	}

	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()
	select {
	case c, ok := <-p.confirms:
		if !ok {
			return errors.New("publish activity event: channel closed before confirmation")
		}
		if !c.Ack {
			return fmt.Errorf("publish activity event: broker nacked delivery %d", c.DeliveryTag)
		}
		return nil
	case <-timer.C:
		return errors.New("publish activity event: confirmation timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *RabbitMQPublisher) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RabbitMQConsumer 从持久队列手动确认地消费事件
type RabbitMQConsumer struct {
	deliveries <-chan amqp.Delivery
	logger     *zap.Logger
	closers    []func() error
}

// RabbitMQOptions 消费者拓扑
type RabbitMQOptions struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
}

// NewRabbitMQConsumer 声明交换机与队列、绑定 activity.# 后开始消费
func NewRabbitMQConsumer(opts RabbitMQOptions, logger *zap.Logger) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	fail := func(format string, err error) (*RabbitMQConsumer, error) {
		_ = conn.Close()
		return nil, fmt.Errorf(format, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fail("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(opts.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fail("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(opts.Queue, true, false, false, false, nil); err != nil {
		return fail("declare queue: %w", err)
	}
	if err := ch.QueueBind(opts.Queue, rabbitBindingKey, opts.Exchange, false, nil); err != nil {
		return fail("bind queue: %w", err)
	}
	if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
		return fail("set qos: %w", err)
	}
	deliveries, err := ch.Consume(opts.Queue, rabbitConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fail("start consuming: %w", err)
	}

	return &RabbitMQConsumer{
		deliveries: deliveries,
		logger:     logger,
		closers:    []func() error{ch.Close, conn.Close},
	}, nil
}

// Consume 处理成功时 Ack，失败时 Nack 且不重新入队；投递通道关闭时返回 nil
func (c *RabbitMQConsumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-c.deliveries:
			if !ok {
				return nil
			}
			if err := handler(ctx, []byte(d.RoutingKey), d.Body); err != nil {
				c.logger.Error("rabbitmq message handling failed",
					zap.String("routing_key", d.RoutingKey),
					zap.Uint64("delivery_tag", d.DeliveryTag),
					zap.Error(err),
				)
				if nackErr := d.Nack(false, false); nackErr != nil {
					c.logger.Warn("rabbitmq nack failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				c.logger.Warn("rabbitmq ack failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(ackErr))
			}
		}
	}
}

func (c *RabbitMQConsumer) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
