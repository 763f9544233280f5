// Package main runs the jobtrack HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/dharsanguruparan/jobtrack/internal/config"
	"github.com/dharsanguruparan/jobtrack/internal/database"
	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/queue"
	"github.com/dharsanguruparan/jobtrack/internal/repository"
	"github.com/dharsanguruparan/jobtrack/internal/s3storage"
	"github.com/dharsanguruparan/jobtrack/internal/server"
	"github.com/dharsanguruparan/jobtrack/internal/signing"
	"github.com/dharsanguruparan/jobtrack/internal/storage"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	deps := server.Deps{Signer: signing.NewSigner(cfg.SessionSecret)}

	switch cfg.Store {
	case config.StoreMemory:
		store := storage.NewMemoryStore()
		deps.Service = tracker.NewService(store, store, cfg.PageSize)
		if _, err := deps.Service.SeedStatuses(ctx); err != nil {
			log.Fatalf("seed statuses: %v", err)
		}
		log.Printf("using in-memory store; data is lost on exit")
	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		deps.Service = tracker.NewService(repository.NewStatusRepository(pool), repository.NewJobRepository(pool), cfg.PageSize)
		if cfg.ExportsEnabled() {
			deps.Exports = repository.NewExportRepository(pool)
		}
	}

	switch cfg.Flash {
	case config.FlashRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		deps.Flash = flash.NewRedisStore(rdb, cfg.FlashTTL)
	default:
		mem := flash.NewMemoryStore(cfg.FlashTTL)
		go sweepFlashes(ctx, mem, cfg.FlashTTL)
		deps.Flash = mem
	}

	if deps.Exports != nil {
		store, err := s3storage.New(cfg)
		if err != nil {
			log.Fatalf("init storage: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("ensure bucket: %v", err)
		}
		client := queue.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		deps.Queue = client
		deps.Presigner = store
	} else {
		log.Printf("exports disabled: they need the postgres store, redis and an S3 endpoint")
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}
	if err := srv.Serve(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}

func sweepFlashes(ctx context.Context, store *flash.MemoryStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}
