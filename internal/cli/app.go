package cli

import (
	"context"
	"fmt"

	"lawn-engine/internal/config"
	"lawn-engine/internal/db"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/metrics"
	"lawn-engine/internal/middleware"
	"lawn-engine/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app holds what every subcommand needs after bootstrap.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
	svc *service.ServiceContext
}

func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	gdb, err := db.InitDB(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	m := metrics.New()
	return &app{
		cfg: cfg,
		log: log,
		db:  gdb,
		svc: service.NewServiceContext(cfg, gdb, m, log),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	a.log.Sync()
}

// newLimiter prefers Redis so limits hold across replicas, and falls back to process memory.
func (a *app) newLimiter(ctx context.Context) (middleware.Limiter, func()) {
	rl := a.cfg.RateLimit
	addr := a.cfg.Redis.Addr()
	if addr == "" {
		return middleware.NewMemoryLimiter(rl.Requests, rl.Window), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		a.log.Warn("redis unavailable, using in-memory rate limiter", "addr", addr, "error", err)
		_ = client.Close()
		return middleware.NewMemoryLimiter(rl.Requests, rl.Window), func() {}
	}
	a.log.Info("redis rate limiter enabled", "addr", addr)
	return middleware.NewRedisLimiter(client, "lawnengine:ratelimit", rl.Requests, rl.Window), func() { _ = client.Close() }
}
