package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/ranking"
	"github.com/MorseWayne/boutique_shop/internal/repo"
	"github.com/MorseWayne/boutique_shop/internal/seed"
)

var seedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newSeededCatalog() *repo.MemoryCatalog {
	c := seed.New(seedTime)
	return repo.NewMemoryCatalog(c.Categories, c.Products, zap.NewNop())
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// failingRanker 模拟热度存储不可用
type failingRanker struct{}

func (failingRanker) Incr(ctx context.Context, productID int64, delta float64) error {
	return errors.New("redis unavailable")
}

func (failingRanker) Scores(ctx context.Context, ids []int64) (map[int64]float64, error) {
	return nil, errors.New("redis unavailable")
}

func (failingRanker) Top(ctx context.Context, n int) ([]ranking.Entry, error) {
	return nil, errors.New("redis unavailable")
}

// failingCartStore 模拟购物车存储不可用
type failingCartStore struct{ repo.CartStore }

func (failingCartStore) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return nil, errors.New("redis unavailable")
}
