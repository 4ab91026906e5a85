package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// CartStore 用户购物车存储，按商品ID升序返回
type CartStore interface {
	Items(ctx context.Context, userID string) ([]domain.CartItem, error)
	Quantity(ctx context.Context, userID string, productID int64) (int, error)
	SetQuantity(ctx context.Context, userID string, productID int64, quantity int) error
	// AddQuantity 原子地累加数量并返回新数量；结果超过 limit 时不修改并返回校验错误
	AddQuantity(ctx context.Context, userID string, productID int64, delta, limit int) (int, error)
	Remove(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
}

// WishlistStore 用户心愿单存储，按商品ID升序返回
type WishlistStore interface {
	Items(ctx context.Context, userID string) ([]int64, error)
	Add(ctx context.Context, userID string, productID int64) (bool, error)
	Remove(ctx context.Context, userID string, productID int64) error
}

// redisCartStore 使用 Redis hash 保存购物车：field 为商品ID，value 为数量
type redisCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCartStore 创建基于 Redis 的购物车存储，ttl 为最后一次修改后的保留时间
func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) CartStore {
	return &redisCartStore{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *redisCartStore) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(fields))
	for f, v := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		items = append(items, domain.CartItem{ProductID: id, Quantity: qty})
	}
	sortCartItems(items)
	return items, nil
}

func (s *redisCartStore) Quantity(ctx context.Context, userID string, productID int64) (int, error) {
	qty, err := s.client.HGet(ctx, cartKey(userID), strconv.FormatInt(productID, 10)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load cart item: %w", err)
	}
	return qty, nil
}

func (s *redisCartStore) SetQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	key := cartKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, strconv.FormatInt(productID, 10), quantity)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	return nil
}

// addQuantityScript 检查上限后 HINCRBY，返回 -1 表示超出上限
var addQuantityScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local updated = current + tonumber(ARGV[2])
if updated > tonumber(ARGV[3]) then
	return -1
end
redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if tonumber(ARGV[4]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return updated
`)

func (s *redisCartStore) AddQuantity(ctx context.Context, userID string, productID int64, delta, limit int) (int, error) {
	qty, err := addQuantityScript.Run(ctx, s.client, []string{cartKey(userID)},
		strconv.FormatInt(productID, 10), delta, limit, s.ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to update cart: %w", err)
	}
	if qty < 0 {
		return 0, errExceedsStock
	}
	return qty, nil
}

func (s *redisCartStore) Remove(ctx context.Context, userID string, productID int64) error {
	if err := s.client.HDel(ctx, cartKey(userID), strconv.FormatInt(productID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *redisCartStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// redisWishlistStore 使用 Redis set 保存心愿单
type redisWishlistStore struct {
	client redis.UniversalClient
}

// NewRedisWishlistStore 创建基于 Redis 的心愿单存储
func NewRedisWishlistStore(client redis.UniversalClient) WishlistStore {
	return &redisWishlistStore{client: client}
}

func wishlistKey(userID string) string {
	return "wishlist:" + userID
}

func (s *redisWishlistStore) Items(ctx context.Context, userID string) ([]int64, error) {
	members, err := s.client.SMembers(ctx, wishlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *redisWishlistStore) Add(ctx context.Context, userID string, productID int64) (bool, error) {
	n, err := s.client.SAdd(ctx, wishlistKey(userID), strconv.FormatInt(productID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return n > 0, nil
}

func (s *redisWishlistStore) Remove(ctx context.Context, userID string, productID int64) error {
	if err := s.client.SRem(ctx, wishlistKey(userID), strconv.FormatInt(productID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// MemoryCartStore 进程内购物车存储
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]map[int64]int
}

// NewMemoryCartStore 创建内存购物车存储
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]map[int64]int)}
}

func (s *MemoryCartStore) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, 0, len(s.carts[userID]))
	for id, qty := range s.carts[userID] {
		items = append(items, domain.CartItem{ProductID: id, Quantity: qty})
	}
	sortCartItems(items)
	return items, nil
}

func (s *MemoryCartStore) Quantity(ctx context.Context, userID string, productID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID][productID], nil
}

func (s *MemoryCartStore) SetQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[userID] == nil {
		s.carts[userID] = make(map[int64]int)
	}
	s.carts[userID][productID] = quantity
	return nil
}

func (s *MemoryCartStore) AddQuantity(ctx context.Context, userID string, productID int64, delta, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.carts[userID][productID] + delta
	if next > limit {
		return 0, errExceedsStock
	}
	if s.carts[userID] == nil {
		s.carts[userID] = make(map[int64]int)
	}
	s.carts[userID][productID] = next
	return next, nil
}

func (s *MemoryCartStore) Remove(ctx context.Context, userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[userID], productID)
	return nil
}

func (s *MemoryCartStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// MemoryWishlistStore 进程内心愿单存储
type MemoryWishlistStore struct {
	mu    sync.Mutex
	lists map[string]map[int64]struct{}
}

// NewMemoryWishlistStore 创建内存心愿单存储
func NewMemoryWishlistStore() *MemoryWishlistStore {
	return &MemoryWishlistStore{lists: make(map[string]map[int64]struct{})}
}

func (s *MemoryWishlistStore) Items(ctx context.Context, userID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.lists[userID]))
	for id := range s.lists[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryWishlistStore) Add(ctx context.Context, userID string, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lists[userID] == nil {
		s.lists[userID] = make(map[int64]struct{})
	}
	if _, ok := s.lists[userID][productID]; ok {
		return false, nil
	}
	s.lists[userID][productID] = struct{}{}
	return true, nil
}

func (s *MemoryWishlistStore) Remove(ctx context.Context, userID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists[userID], productID)
	return nil
}

var errExceedsStock = &domain.ValidationError{Field: "quantity", Reason: "exceeds available stock"}

func sortCartItems(items []domain.CartItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
}
