package catalogview

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gatedFetcher 每个请求阻塞到对应闸门打开，用于控制响应到达顺序
type gatedFetcher struct {
	mu    sync.Mutex
	pages map[string]Page
	gates map[string]chan struct{}
	calls []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{pages: map[string]Page{}, gates: map[string]chan struct{}{}}
}

func fetchKey(f Filters, page int) string {
	return f.Search + "|" + strconv.Itoa(page)
}

func (g *gatedFetcher) set(search string, pageNum int, p Page) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := fetchKey(Filters{Search: search}, pageNum)
	gate := make(chan struct{})
	g.pages[key] = p
	g.gates[key] = gate
	return gate
}

func (g *gatedFetcher) FetchPage(ctx context.Context, f Filters, pageNum int) (*Page, error) {
	key := fetchKey(f, pageNum)
	g.mu.Lock()
	g.calls = append(g.calls, key)
	gate, ok := g.gates[key]
	p := g.pages[key]
	g.mu.Unlock()
	if !ok {
		return nil, &TransientError{Err: errors.New("no such page")}
	}

	select {
	case <-gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &p, nil
}

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func startController(t *testing.T, f Fetcher) (*Controller, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(f, zap.NewNop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, ctx
}

func waitFor(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(c.State()) }, 2*time.Second, 5*time.Millisecond)
	return c.State()
}

func TestController_ResetWinsOverSlowAppend(t *testing.T) {
	f := newGatedFetcher()
	close(f.set("", 1, page(1, 2, 1, 2, 3)))
	appendGate := f.set("", 2, page(2, 2, 4, 5, 6))
	resetGate := f.set("lehenga", 1, page(1, 1, 1))

	c, ctx := startController(t, f)

	require.NoError(t, c.Dispatch(ctx, FiltersChanged{}))
	waitFor(t, c, func(s State) bool { return s.Phase == Loaded })

	require.NoError(t, c.Dispatch(ctx, LoadMoreRequested{}))
	waitFor(t, c, func(s State) bool { return s.Phase == LoadingAppend })
	require.NoError(t, c.Dispatch(ctx, FiltersChanged{Filters: Filters{Search: "lehenga"}}))
	waitFor(t, c, func(s State) bool { return s.Phase == LoadingReset })
	require.Eventually(t, func() bool { return f.callCount() == 3 }, 2*time.Second, 5*time.Millisecond)

	close(resetGate)
	waitFor(t, c, func(s State) bool { return s.Phase == Exhausted })
	close(appendGate)

	// 给过期响应回到事件循环的时间
	time.Sleep(50 * time.Millisecond)
	final := c.State()
	assert.Equal(t, Exhausted, final.Phase)
	assert.Equal(t, []int64{1}, productIDs(final.Products))
	assert.Equal(t, "lehenga", final.Filters.Search)
}

func TestController_FailureKeepsProducts(t *testing.T) {
	f := newGatedFetcher()
	close(f.set("", 1, page(1, 3, 1, 2)))

	c, ctx := startController(t, f)
	require.NoError(t, c.Dispatch(ctx, FiltersChanged{}))
	waitFor(t, c, func(s State) bool { return s.Phase == Loaded })

	// 第 2 页未注册，拉取失败
	require.NoError(t, c.Dispatch(ctx, LoadMoreRequested{}))
	s := waitFor(t, c, func(s State) bool { return s.Err != nil })
	assert.Equal(t, Loaded, s.Phase)
	assert.Equal(t, []int64{1, 2}, productIDs(s.Products))
	assert.True(t, IsTransient(s.Err))
}

func TestController_Subscribe(t *testing.T) {
	f := newGatedFetcher()
	close(f.set("", 1, page(1, 1, 7)))

	c, ctx := startController(t, f)
	updates, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Dispatch(ctx, FiltersChanged{}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-updates:
			if s.Phase == Exhausted {
				assert.Equal(t, []int64{7}, productIDs(s.Products))
				return
			}
		case <-deadline:
			t.Fatal("no settled state published")
		}
	}
}
