package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"medibot/internal/adapters/storage/memory"
	"medibot/internal/adapters/storage/postgres"
	"medibot/internal/adapters/storage/redis"
	"medibot/internal/platform/config"
	"medibot/internal/platform/logger"
	"medibot/internal/platform/retry"
	"medibot/internal/ports/kv"
)

// backend es el store elegido más sus hooks de readiness y cierre.
type backend struct {
	store kv.Store
	ping  func(ctx context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*backend, error) {
	var b backend
	switch cfg.Backend {
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s := postgres.NewStore(pool)
		b = backend{store: s, ping: s.Ping, close: pool.Close}
	case "redis":
		s, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		b = backend{store: s, ping: s.Ping, close: func() { _ = s.Close() }}
	default:
		log.Warn("using in-memory storage; data is lost on restart", nil)
		b = backend{store: memory.NewStore(), close: func() {}}
	}

	b.store = kv.WithRetry(b.store, retry.Policy{
		Attempts: cfg.RetryAttempts,
		Initial:  cfg.RetryBackoff,
		Max:      10 * cfg.RetryBackoff,
		Jitter:   true,
	}, log)

	log.Info("storage ready", map[string]any{"backend": cfg.Backend})
	return &b, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables used by the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != "postgres" {
				return fmt.Errorf("migrate: STORAGE_BACKEND is %q, only postgres needs migrations", cfg.Storage.Backend)
			}
			log := newLogger(cfg)
			defer syncLogger(log)

			pool, err := postgres.Open(cmd.Context(), cfg.Storage.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info("migrations applied", nil)
			return nil
		},
	}
}
