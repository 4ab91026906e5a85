// Package main 消费商品行为事件并累加到 Redis 热度排行，供 popular 排序使用
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/logger"
	"github.com/MorseWayne/boutique_shop/internal/ranking"
)

// consumer Kafka 与 RabbitMQ 消费者的公共部分
type consumer interface {
	Consume(ctx context.Context, handler events.MessageHandler) error
	Close() error
}

// newConsumer 与服务端发布者的选择保持一致：Kafka 优先，其次 RabbitMQ
func newConsumer(cfg *config.Config, lg *zap.Logger) (consumer, error) {
	if !cfg.Kafka.Enabled && cfg.RabbitMQ.Enabled {
		lg.Info("consuming from rabbitmq",
			zap.String("exchange", cfg.RabbitMQ.Exchange),
			zap.String("queue", cfg.RabbitMQ.Queue),
		)
		return events.NewRabbitMQConsumer(events.RabbitMQOptions{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Queue:    cfg.RabbitMQ.Queue,
			Prefetch: cfg.RabbitMQ.Prefetch,
		}, lg)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	lg.Info("consuming from kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group_id", cfg.Kafka.GroupID),
	)
	return events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, lg), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "popularity-projector", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	rdb, err := cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		lg.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			lg.Error("failed to close redis", zap.Error(err))
		}
	}()

	src, err := newConsumer(cfg, lg)
	if err != nil {
		lg.Fatal("failed to create consumer", zap.Error(err))
	}
	defer func() {
		if err := src.Close(); err != nil {
			lg.Error("failed to close consumer", zap.Error(err))
		}
	}()

	projector := events.NewProjector(ranking.NewRedisRanker(rdb, cfg.Ranking.Key), lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("popularity projector started", zap.String("ranking_key", cfg.Ranking.Key))
	if err := src.Consume(ctx, projector.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("consumer stopped", zap.Error(err))
		return
	}
	lg.Info("popularity projector stopped")
}
