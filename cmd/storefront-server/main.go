package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/api"
	"github.com/MorseWayne/boutique_shop/internal/cache"
	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/database"
	"github.com/MorseWayne/boutique_shop/internal/events"
	"github.com/MorseWayne/boutique_shop/internal/limiter"
	"github.com/MorseWayne/boutique_shop/internal/logger"
	mw "github.com/MorseWayne/boutique_shop/internal/middleware"
	"github.com/MorseWayne/boutique_shop/internal/ranking"
	"github.com/MorseWayne/boutique_shop/internal/repo"
	"github.com/MorseWayne/boutique_shop/internal/router"
	"github.com/MorseWayne/boutique_shop/internal/seed"
	"github.com/MorseWayne/boutique_shop/internal/service"
	"github.com/MorseWayne/boutique_shop/internal/storage"
)

const (
	cartTTL        = 30 * 24 * time.Hour
	idempotencyTTL = 24 * time.Hour
)

// app 组装完成的应用及其需要释放的资源
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) close(lg *zap.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			lg.Warn("resource close failed", zap.Error(err))
		}
	}
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, lg, nil
}

// initCatalogStore 初始化商品目录存储：MySQL（启动时执行迁移）或内存种子数据
func initCatalogStore(ctx context.Context, cfg *config.Config, a *app, lg *zap.Logger) (repo.ProductRepository, repo.CategoryRepository, error) {
	if cfg.Store.Driver == "memory" {
		c := seed.New(time.Now().UTC())
		catalog := repo.NewMemoryCatalog(c.Categories, c.Products, lg)
		lg.Info("catalog store ready", zap.String("driver", "memory"), zap.Int("products", len(c.Products)))
		return catalog, catalog.Categories(), nil
	}

	db, err := database.New(ctx, cfg, lg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	// 在 HTTP 服务启动前完成迁移
	lg.Info("using migrations directory", zap.String("path", cfg.Migrations.Dir))
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return repo.NewProductRepository(db.DB), repo.NewCategoryRepository(db.DB), nil
}

// initRedis 连接共享的 Redis 客户端，不可用时返回 nil，各组件退化为进程内实现
func initRedis(cfg *config.Config, a *app, lg *zap.Logger) redis.UniversalClient {
	if !cfg.Redis.Enabled {
		lg.Info("redis disabled")
		return nil
	}
	client, err := cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		lg.Warn("redis unavailable, falling back to in-process components", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, client.Close)
	lg.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}

// initCache 初始化缓存实例
func initCache(cfg *config.Config, rdb redis.UniversalClient, lg *zap.Logger) cache.Cache {
	if !cfg.Cache.Enabled {
		lg.Info("cache disabled")
		return cache.NewNullCache()
	}
	switch cfg.Cache.Type {
	case "redis":
		if rdb != nil {
			lg.Info("cache enabled", zap.String("type", "redis"), zap.Duration("ttl", cfg.Cache.TTL))
			return cache.NewRedisCache(rdb, "boutique:")
		}
		lg.Warn("redis cache requested without redis, using memory cache")
	case "memory":
	default:
		lg.Warn("unknown cache type, using memory cache", zap.String("type", cfg.Cache.Type))
	}
	lg.Info("cache enabled", zap.String("type", "memory"), zap.Duration("ttl", cfg.Cache.TTL))
	return cache.NewMemoryCache()
}

// initRanker 初始化热度排行；返回 nil 时 popular 排序按 newest 处理
func initRanker(cfg *config.Config, rdb redis.UniversalClient, lg *zap.Logger) ranking.Ranker {
	switch cfg.Ranking.Driver {
	case "redis":
		if rdb != nil {
			return ranking.NewRedisRanker(rdb, cfg.Ranking.Key)
		}
		lg.Warn("redis ranking requested without redis, using memory ranking")
		return ranking.NewMemoryRanker()
	case "memory":
		return ranking.NewMemoryRanker()
	default:
		lg.Info("popularity ranking disabled, popular sort falls back to newest")
		return nil
	}
}

// initPublisher 行为事件发布：启用 Kafka 或 RabbitMQ 时异步投递给 popularity-projector，否则直接写入排行
func initPublisher(cfg *config.Config, ranker ranking.Ranker, a *app, lg *zap.Logger) events.Publisher {
	if cfg.Kafka.Enabled {
		pub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, pub.Close)
		lg.Info("activity events go to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
		return pub
	}
	if cfg.RabbitMQ.Enabled {
		pub, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err == nil {
			a.closers = append(a.closers, pub.Close)
			lg.Info("activity events go to rabbitmq", zap.String("exchange", cfg.RabbitMQ.Exchange))
			return pub
		}
		lg.Warn("rabbitmq unavailable, projecting activity in process", zap.Error(err))
	}
	if ranker == nil {
		return events.NopPublisher{}
	}
	return events.NewRankingPublisher(ranker, lg)
}

// initImageResolver 图片地址解析
func initImageResolver(cfg *config.Config, lg *zap.Logger) (storage.URLResolver, error) {
	static := storage.NewStaticResolver(cfg.Storage.BaseURL)
	if cfg.Storage.Driver != "minio" {
		return static, nil
	}
	resolver, err := storage.NewMinioResolver(storage.MinioOptions{
		Endpoint:  cfg.Storage.MinioEndpoint,
		AccessKey: cfg.Storage.MinioAccessKey,
		SecretKey: cfg.Storage.MinioSecretKey,
		Bucket:    cfg.Storage.MinioBucket,
		Secure:    cfg.Storage.MinioSecure,
		Expiry:    cfg.Storage.PresignExpiry,
	}, static)
	if err != nil {
		return nil, fmt.Errorf("init minio resolver: %w", err)
	}
	lg.Info("images served from minio", zap.String("endpoint", cfg.Storage.MinioEndpoint), zap.String("bucket", cfg.Storage.MinioBucket))
	return resolver, nil
}

// initLimiter 公共 API 限流；未启用时返回 nil
func initLimiter(cfg *config.Config, rdb redis.UniversalClient) (limiter.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	return limiter.NewFactory(rdb).Create(limiter.FixedWindow, &limiter.Config{
		Rate:      cfg.RateLimit.Rate,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: "rl:api",
	})
}

// initCartStores 购物车与心愿单存储
func initCartStores(rdb redis.UniversalClient) (repo.CartStore, repo.WishlistStore) {
	if rdb == nil {
		return repo.NewMemoryCartStore(), repo.NewMemoryWishlistStore()
	}
	return repo.NewRedisCartStore(rdb, cartTTL), repo.NewRedisWishlistStore(rdb)
}

// buildApp 初始化依赖注入链：存储 -> 仓储 -> 服务 -> 处理器 -> 路由
func buildApp(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close(lg)
		return nil, err
	}

	baseProducts, baseCategories, err := initCatalogStore(ctx, cfg, a, lg)
	if err != nil {
		return fail(err)
	}
	rdb := initRedis(cfg, a, lg)
	cacheInstance := initCache(cfg, rdb, lg)

	productRepo := baseProducts
	categoryRepo := baseCategories
	if cfg.Cache.Enabled {
		productRepo = repo.NewCachedProductRepository(baseProducts, cacheInstance, cfg.Cache.TTL, lg)
		categoryRepo = repo.NewCachedCategoryRepository(baseCategories, cacheInstance, cfg.Cache.TTL, lg)
	}

	ranker := initRanker(cfg, rdb, lg)
	publisher := initPublisher(cfg, ranker, a, lg)
	images, err := initImageResolver(cfg, lg)
	if err != nil {
		return fail(err)
	}
	apiLimiter, err := initLimiter(cfg, rdb)
	if err != nil {
		return fail(fmt.Errorf("init rate limiter: %w", err))
	}
	cartStore, wishlistStore := initCartStores(rdb)

	catalogService := service.NewCatalogService(productRepo, ranker, publisher, cfg.Catalog.FeaturedLimit, lg)
	categoryService := service.NewCategoryService(categoryRepo)
	cartService := service.NewCartService(cartStore, productRepo, publisher, lg)
	wishlistService := service.NewWishlistService(wishlistStore, productRepo, publisher, lg)
	navigationService := service.NewNavigationService(cartService, lg)
	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, lg)

	presenter := api.NewPresenter(images, lg)
	deps := &router.Dependencies{
		CatalogHandler:   api.NewCatalogHandler(catalogService, presenter, lg),
		CategoryHandler:  api.NewCategoryHandler(categoryService, presenter, lg),
		CartHandler:      api.NewCartHandler(cartService, wishlistService, presenter, lg),
		SessionHandler:   api.NewSessionHandler(navigationService),
		Verifier:         verifier,
		Limiter:          apiLimiter,
		IdempotencyStore: cacheInstance,
		IdempotencyTTL:   idempotencyTTL,
	}
	if !cfg.Cache.Enabled {
		// 空缓存无法保存快照
		deps.IdempotencyStore = cache.NewMemoryCache()
	}

	engine := router.New().Setup(cfg, deps, lg)

	// 请求进入时执行顺序为 request ID → access log → CORS → timeout → recovery → gin
	handler := mw.Recovery(lg)(engine)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(handler)
	handler = mw.AccessLog(lg)(handler)
	handler = mw.RequestID(handler)

	a.handler = handler
	return a, nil
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Info("server starting", zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", zap.Error(err))
			return
		}
	case <-quit:
		lg.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown error", zap.Error(err))
	}
	lg.Info("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	a, err := buildApp(context.Background(), cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.close(lg)

	startServer(cfg, a.handler, lg)
}
