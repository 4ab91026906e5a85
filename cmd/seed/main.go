// Package main 将初始商品目录写入 MySQL
// 已存在的分类（按 slug）与商品（按分类内标题）会被跳过，可以重复执行
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/database"
	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/logger"
	"github.com/MorseWayne/boutique_shop/internal/repo"
	"github.com/MorseWayne/boutique_shop/internal/seed"
)

func main() {
	migrateFirst := flag.Bool("migrate", true, "Run pending migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "seed", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	if *migrateFirst {
		if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
			lg.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	catalog := seed.New(time.Now().UTC())
	stats, err := load(ctx, catalog, repo.NewCategoryRepository(db.DB), repo.NewProductRepository(db.DB), lg)
	if err != nil {
		lg.Fatal("seeding failed", zap.Error(err))
	}
	lg.Info("seeding completed",
		zap.Int("categories_created", stats.categories),
		zap.Int("products_created", stats.products),
		zap.Int("skipped", stats.skipped),
	)
}

type loadStats struct {
	categories int
	products   int
	skipped    int
}

// load 写入分类与商品，商品的分类 ID 按 slug 重新映射为数据库中的 ID
func load(ctx context.Context, c *seed.Catalog, categories repo.CategoryRepository, products repo.ProductRepository, lg *zap.Logger) (loadStats, error) {
	var stats loadStats
	idBySlug := make(map[string]int64, len(c.Categories))

	for _, cat := range c.Categories {
		existing, err := categories.GetBySlug(ctx, cat.Slug)
		if err != nil {
			return stats, fmt.Errorf("lookup category %s: %w", cat.Slug, err)
		}
		if existing != nil {
			idBySlug[cat.Slug] = existing.ID
			stats.skipped++
			continue
		}
		row := *cat
		if err := categories.Create(ctx, &row); err != nil {
			return stats, fmt.Errorf("create category %s: %w", cat.Slug, err)
		}
		idBySlug[cat.Slug] = row.ID
		stats.categories++
		lg.Debug("category created", zap.String("slug", row.Slug), zap.Int64("id", row.ID))
	}

	for _, p := range c.Products {
		slug := c.CategorySlug(p)
		exists, err := productExists(ctx, products, slug, p.Title)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.skipped++
			continue
		}

		row := *p
		row.ID = 0
		row.CategoryID = idBySlug[slug]
		if err := products.Create(ctx, &row); err != nil {
			return stats, fmt.Errorf("create product %q: %w", p.Title, err)
		}
		stats.products++
		lg.Debug("product created", zap.String("title", row.Title), zap.Int64("id", row.ID))
	}
	return stats, nil
}

func productExists(ctx context.Context, products repo.ProductRepository, slug, title string) (bool, error) {
	for page := 1; ; page++ {
		q := (&domain.FilterQuery{Search: title, Category: slug, Page: page}).Normalize()
		found, total, err := products.List(ctx, q)
		if err != nil {
			return false, fmt.Errorf("lookup product %q: %w", title, err)
		}
		for _, p := range found {
			if strings.EqualFold(p.Title, title) {
				return true, nil
			}
		}
		if int64(q.Offset()+len(found)) >= total || len(found) == 0 {
			return false, nil
		}
	}
}
