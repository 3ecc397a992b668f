package main

import (
	"context"
	"log"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"discord-sentinel-bot/internal/bot"
	"discord-sentinel-bot/internal/cache"
	"discord-sentinel-bot/internal/clock"
	"discord-sentinel-bot/internal/config"
	"discord-sentinel-bot/internal/database"
	"discord-sentinel-bot/internal/engine"
	"discord-sentinel-bot/internal/engine/alerts"
	"discord-sentinel-bot/internal/engine/audit"
	"discord-sentinel-bot/internal/engine/executor"
	"discord-sentinel-bot/internal/engine/guard"
	"discord-sentinel-bot/internal/engine/msgcache"
	"discord-sentinel-bot/internal/engine/tracker"
	"discord-sentinel-bot/internal/metrics"
	"discord-sentinel-bot/internal/redis"
)

const janitorInterval = 30 * time.Second

func main() {
	// Detection latency matters more than memory: fewer GC cycles, all
	// cores available to gateway handler goroutines.
	runtime.GOMAXPROCS(runtime.NumCPU())
	debug.SetGCPercent(400)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load("config.json")
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	defaults, err := config.LoadDefaults()
	if err != nil {
		logger.Fatal("defaults load failed", zap.Error(err))
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	db, err := database.NewDatabase(cfg.Postgres)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()

	lookupCache, err := cache.New(rdb, cache.Config{})
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer lookupCache.Close()

	reg := metrics.New()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	b, err := bot.New(cfg.Token, db, rdb, lookupCache, reg, logger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	b.Defaults = defaults.Thresholds

	clk := clock.System{}
	eng := engine.New(engine.Deps{
		Store:     db,
		Directory: &bot.SessionDirectory{Session: b.Session, Cache: lookupCache},
		Resolver:  audit.NewResolver(&audit.SessionFetcher{Session: b.Session}, clk, logger),
		Tracker:   tracker.New(clk),
		Guard:     guard.New(clk),
		Messages:  msgcache.New(clk),
		Executor:  executor.New(b.Session, clk, logger),
		Alerts:    alerts.New(db, b.Session, logger),
		Moderator: &bot.SessionModerator{Session: b.Session},
		Metrics:   reg,
		Defaults: engine.Defaults{
			Punishment: defaults.Punishment,
			Thresholds: defaults.Thresholds,
		},
		Clock: clk,
		Log:   logger,
	})
	b.Attach(eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.StartJanitor(ctx, janitorInterval)

	if err := b.Start(); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}
