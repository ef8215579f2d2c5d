package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow/config"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/redis"
	"github.com/meikuraledutech/flow/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := zerolog.Nop()

	t.Run("memory", func(t *testing.T) {
		s, closeFn, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory}, log)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &memory.Store{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "flow.db")
		s, closeFn, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: dsn}, log)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &sqlite.Store{}, s)
		require.NoError(t, s.CreateSchema(ctx))
	})

	t.Run("redis", func(t *testing.T) {
		mini := miniredis.RunT(t)
		cfg := config.StoreConfig{Driver: config.DriverRedis, KeyPrefix: "t", Redis: config.RedisConfig{Addr: mini.Addr()}}
		s, closeFn, err := Open(ctx, cfg, log)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &redis.Store{}, s)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mini := miniredis.RunT(t)
		addr := mini.Addr()
		mini.Close()
		_, _, err := Open(ctx, config.StoreConfig{Driver: config.DriverRedis, Redis: config.RedisConfig{Addr: addr}}, log)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := Open(ctx, config.StoreConfig{Driver: "mongo"}, log)
		assert.Error(t, err)
	})
}
