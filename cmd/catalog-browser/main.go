// Package main 命令行商品浏览器：驱动列表状态机访问商品列表接口
//
// 命令：
//
//	search <text>      按关键词过滤（不带参数则清除）
//	category <slug>    按分类过滤（不带参数则清除）
//	min <price>        最低价（不带参数则清除）
//	max <price>        最高价（不带参数则清除）
//	sort <key>         newest | price-asc | price-desc | popular
//	more               加载下一页
//	show               打印当前列表
//	quit               退出
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/catalogview"
	"github.com/MorseWayne/boutique_shop/internal/domain"
	"github.com/MorseWayne/boutique_shop/internal/logger"
)

func main() {
	baseURL := flag.String("addr", "http://localhost:8080", "Storefront server base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	token := flag.String("token", "", "Optional bearer token")
	flag.Parse()

	lg, err := logger.New("dev", "warn", "console", "catalog-browser", "")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	fetcher := catalogview.NewHTTPFetcher(*baseURL, *timeout)
	if *token != "" {
		fetcher.WithBearerToken(*token)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := catalogview.NewController(fetcher, lg)
	go func() { _ = ctrl.Run(ctx) }()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()
	go func() {
		for s := range updates {
			printStatus(os.Stdout, s)
		}
	}()

	if err := ctrl.Dispatch(ctx, catalogview.FiltersChanged{}); err != nil {
		lg.Fatal("initial load failed", zap.Error(err))
	}
	if err := repl(ctx, os.Stdin, os.Stdout, ctrl); err != nil {
		lg.Error("input error", zap.Error(err))
	}
}

// repl 读取命令行并转换为状态机动作
func repl(ctx context.Context, in io.Reader, out io.Writer, ctrl *catalogview.Controller) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		action, quit, err := parseCommand(scanner.Text(), ctrl.State())
		switch {
		case quit:
			return nil
		case err != nil:
			fmt.Fprintln(out, err)
		case action == nil:
			printProducts(out, ctrl.State())
		default:
			if err := ctrl.Dispatch(ctx, action); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// parseCommand 解析一行命令；返回 nil 动作表示打印当前列表
func parseCommand(line string, current catalogview.State) (catalogview.Action, bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	f := current.Filters

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return nil, true, nil
	case "show", "":
		return nil, false, nil
	case "more":
		if !current.CanLoadMore() {
			return nil, false, fmt.Errorf("nothing more to load (%s)", current.Phase)
		}
		return catalogview.LoadMoreRequested{}, false, nil
	case "search":
		f.Search = arg
	case "category":
		f.Category = arg
	case "min":
		f.MinPrice = arg
	case "max":
		f.MaxPrice = arg
	case "sort":
		f.Sort = domain.ParseSortKey(arg)
	default:
		return nil, false, fmt.Errorf("unknown command %q", cmd)
	}
	return catalogview.FiltersChanged{Filters: f}, false, nil
}

func printStatus(w io.Writer, s catalogview.State) {
	switch {
	case s.Phase.IsLoading():
		fmt.Fprintf(w, "loading... (%s)\n", s.Phase)
	case s.Err != nil:
		fmt.Fprintf(w, "request failed, showing previous results: %v\n", s.Err)
	case s.IsEmpty():
		fmt.Fprintln(w, "no products found")
	default:
		fmt.Fprintf(w, "%d of %d products shown", len(s.Products), s.TotalItems)
		if s.HasMore {
			fmt.Fprint(w, " (type 'more' for the next page)")
		}
		fmt.Fprintln(w)
	}
}

func printProducts(w io.Writer, s catalogview.State) {
	for i, p := range s.Products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		fmt.Fprintf(w, "%3d. %-32s %10s  %-18s stock %d\n", i+1, p.Title, p.Price.StringFixed(2), category, p.Stock)
	}
	printStatus(w, s)
}
