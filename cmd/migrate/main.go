// Package main 管理商品目录库表结构迁移，基于 golang-migrate
//
//	migrate up
//	migrate down -steps 2
//	migrate goto 1
//	migrate force 0
//	migrate status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/config"
	"github.com/MorseWayne/boutique_shop/internal/database"
	"github.com/MorseWayne/boutique_shop/internal/logger"
)

const usage = `usage: migrate [-dir path] <command> [args]

commands:
  up               apply all pending migrations
  down [-steps n]  roll back n migrations (default 1)
  goto <version>   migrate up or down to version
  force <version>  set version without running migrations, clears dirty state
  status           print current version and dirty flag
`

// command 解析后的子命令
type command struct {
	name    string
	steps   int
	version uint
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}
	cmd := command{name: args[0], steps: 1}
	rest := args[1:]

	switch cmd.name {
	case "up", "status":
		if len(rest) > 0 {
			return cmd, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "down":
		fs := flag.NewFlagSet("down", flag.ContinueOnError)
		fs.IntVar(&cmd.steps, "steps", 1, "number of migrations to roll back")
		if err := fs.Parse(rest); err != nil {
			return cmd, err
		}
		if cmd.steps <= 0 {
			return cmd, fmt.Errorf("steps must be positive, got %d", cmd.steps)
		}
	case "goto", "force":
		if len(rest) != 1 {
			return cmd, fmt.Errorf("%s requires a version", cmd.name)
		}
		v, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			return cmd, fmt.Errorf("invalid version %q", rest[0])
		}
		if cmd.name == "goto" && v == 0 {
			return cmd, errors.New("goto requires a version above 0, use down to roll back everything")
		}
		cmd.version = uint(v)
	default:
		return cmd, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func run(db *database.DB, dir string, cmd command, lg *zap.Logger) error {
	switch cmd.name {
	case "up":
		return db.RunMigrations(dir)
	case "down":
		return db.MigrateDown(dir, cmd.steps)
	case "goto":
		return db.MigrateToVersion(dir, cmd.version)
	case "force":
		return db.ForceMigrationVersion(dir, cmd.version)
	case "status":
		version, dirty, err := db.Status(dir)
		if err != nil {
			return err
		}
		lg.Info("migration status", zap.Uint("version", version), zap.Bool("dirty", dirty))
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd.name)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dir := flag.String("dir", cfg.Migrations.Dir, "migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cmd, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
		os.Exit(2)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.New(context.Background(), cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database", "error", err)
		}
	}()

	lg.Info("running migration command", zap.String("command", cmd.name), zap.String("dir", *dir))
	if err := run(db, *dir, cmd, lg); err != nil {
		lg.Error("migration command failed", zap.String("command", cmd.name), zap.Error(err))
		os.Exit(1)
	}
	lg.Info("migration command completed", zap.String("command", cmd.name))
}
