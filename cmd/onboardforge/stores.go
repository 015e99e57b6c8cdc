package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/OnboardForge/internal/adapter/kvstore"
	"github.com/Strob0t/OnboardForge/internal/adapter/memory"
	cfnats "github.com/Strob0t/OnboardForge/internal/adapter/nats"
	"github.com/Strob0t/OnboardForge/internal/adapter/natskv"
	"github.com/Strob0t/OnboardForge/internal/adapter/postgres"
	cfredis "github.com/Strob0t/OnboardForge/internal/adapter/redis"
	cfristretto "github.com/Strob0t/OnboardForge/internal/adapter/ristretto"
	"github.com/Strob0t/OnboardForge/internal/adapter/tiered"
	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/port/cache"
	"github.com/Strob0t/OnboardForge/internal/port/database"
	"github.com/Strob0t/OnboardForge/internal/port/eventstore"
)

const l1BackfillTTL = 5 * time.Minute

// backends are the storage pieces selected by store.driver.
type backends struct {
	cases  database.Store
	events eventstore.Store
	// shared is a cache visible to every replica, nil for process-local
	// drivers. Idempotency keys live there when present.
	shared  cache.Cache
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, queue *cfnats.Queue) (*backends, error) {
	b := &backends{}
	switch cfg.Store.Driver {
	case config.StoreMemory:
		b.cases, b.events = memory.NewStore(), memory.NewEventStore()

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
		b.cases, b.events = postgres.NewStore(pool), postgres.NewEventStore(pool)

	case config.StoreRistretto:
		l1, err := openRistretto(cfg, b)
		if err != nil {
			return nil, err
		}
		b.useKV(l1, cfg.Store.CaseTTL)

	case config.StoreRedis:
		rc, err := openRedis(ctx, cfg, b)
		if err != nil {
			return nil, err
		}
		b.shared = rc
		b.useKV(rc, cfg.Store.CaseTTL)

	case config.StoreNATSKV:
		kv, err := openNATSKV(ctx, cfg, queue)
		if err != nil {
			return nil, err
		}
		b.shared = kv
		b.useKV(kv, cfg.Store.CaseTTL)

	case config.StoreTiered:
		l1, err := openRistretto(cfg, b)
		if err != nil {
			return nil, err
		}
		var l2 cache.Cache
		if cfg.Cache.L2Driver == config.StoreRedis {
			l2, err = openRedis(ctx, cfg, b)
		} else {
			l2, err = openNATSKV(ctx, cfg, queue)
		}
		if err != nil {
			b.Close()
			return nil, err
		}
		b.shared = l2
		b.useKV(tiered.New(l1, l2, l1BackfillTTL), cfg.Store.CaseTTL)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return b, nil
}

func (b *backends) useKV(kv cache.Cache, ttl time.Duration) {
	b.cases, b.events = kvstore.NewStore(kv, ttl), kvstore.NewEventStore(kv, ttl)
}

func openRistretto(cfg *config.Config, b *backends) (*cfristretto.Cache, error) {
	c, err := cfristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	b.closers = append(b.closers, c.Close)
	return c, nil
}

func openRedis(ctx context.Context, cfg *config.Config, b *backends) (*cfredis.Cache, error) {
	c, err := cfredis.New(ctx, cfredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "onboardforge:",
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = c.Close() })
	return c, nil
}

func openNATSKV(ctx context.Context, cfg *config.Config, queue *cfnats.Queue) (*natskv.Cache, error) {
	if queue == nil {
		return nil, fmt.Errorf("store driver %q needs nats.enabled", cfg.Store.Driver)
	}
	kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return nil, fmt.Errorf("nats kv: %w", err)
	}
	return natskv.New(kv), nil
}
