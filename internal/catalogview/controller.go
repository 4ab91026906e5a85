package catalogview

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Fetcher 拉取一页商品
type Fetcher interface {
	FetchPage(ctx context.Context, filters Filters, page int) (*Page, error)
}

// Controller 在单个事件循环中串行处理动作，拉取在独立 goroutine 中执行，
// 结果以 PageLoaded/LoadFailed 动作回到循环
type Controller struct {
	fetcher Fetcher
	logger  *zap.Logger
	actions chan Action

	mu    sync.RWMutex
	state State
	subs  map[int]chan State
	subID int
}

// NewController 创建控制器，调用 Run 后开始处理动作
func NewController(fetcher Fetcher, logger *zap.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		logger:  logger,
		actions: make(chan Action, 64),
		state:   Initial(),
		subs:    make(map[int]chan State),
	}
}

// Run 运行事件循环直到 ctx 结束
// 在途请求不会被取消，过期结果由代数比较丢弃
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-c.actions:
			c.handle(ctx, a)
		}
	}
}

func (c *Controller) handle(ctx context.Context, a Action) {
	c.mu.Lock()
	prev := c.state
	next, req := Reduce(prev, a)
	c.state = next
	c.mu.Unlock()

	switch a := a.(type) {
	case PageLoaded:
		if a.Generation != prev.Generation {
			c.logger.Debug("stale page discarded",
				zap.Uint64("generation", a.Generation),
				zap.Uint64("current", prev.Generation),
			)
		}
	case LoadFailed:
		if a.Generation == prev.Generation {
			c.logger.Warn("catalog page load failed",
				zap.Uint64("generation", a.Generation),
				zap.Error(a.Err),
			)
		}
	}

	c.publish(next)
	if req != nil {
		go c.fetch(ctx, *req)
	}
}

func (c *Controller) fetch(ctx context.Context, req Request) {
	page, err := c.fetcher.FetchPage(ctx, req.Filters, req.Page)
	var result Action
	if err != nil {
		result = LoadFailed{Generation: req.Generation, Err: err}
	} else {
		result = PageLoaded{Generation: req.Generation, Page: *page}
	}
	select {
	case c.actions <- result:
	case <-ctx.Done():
	}
}

// Dispatch 投递一个动作，ctx 结束时放弃
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	select {
	case c.actions <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State 返回当前状态
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe 订阅状态变化，慢消费者只会收到最新状态
// 返回的函数用于取消订阅
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.subID
	c.subID++
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) publish(s State) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
