// Package backend opens the flow.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/config"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/postgres"
	"github.com/meikuraledutech/flow/redis"
	"github.com/meikuraledutech/flow/sqlite"
)

// Open connects to the configured store. The returned func releases it.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (flow.Store, func(), error) {
	log = log.With().Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case config.DriverMemory:
		log.Info().Msg("using in-memory store")
		return memory.New(), func() {}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("backend: ping postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")
		return postgres.New(pool), pool.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.DSN).Msg("opened sqlite")
		return s, func() { _ = s.Close() }, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("backend: ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		return redis.New(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("backend: unknown store driver %q", cfg.Driver)
}
