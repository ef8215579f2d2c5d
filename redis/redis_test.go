package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/storetest"
)

// newTestStore creates a Store backed by miniredis.
func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mini
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) flow.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_KeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mini := newTestStore(t)
	require.NoError(t, s.Put(ctx, storetest.Document("a", "first")))

	assert.True(t, mini.Exists("test:doc:a"))
	members, err := mini.ZMembers("test:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, members)
}

func TestStore_DropSchema(t *testing.T) {
	ctx := context.Background()
	s, mini := newTestStore(t)
	require.NoError(t, s.Put(ctx, storetest.Document("a", "first")))
	require.NoError(t, s.Put(ctx, storetest.Document("b", "second")))
	require.NoError(t, s.DropSchema(ctx))

	assert.Empty(t, mini.Keys())
}

func TestStore_ConnectionFailure(t *testing.T) {
	ctx := context.Background()
	s, mini := newTestStore(t)
	mini.Close()

	_, err := s.Get(ctx, "a")
	assert.Error(t, err)
	assert.Error(t, s.CreateSchema(ctx))
}

func TestNew_DefaultPrefix(t *testing.T) {
	s := New(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), "")
	assert.Equal(t, "flow:doc:x", s.docKey("x"))
}
