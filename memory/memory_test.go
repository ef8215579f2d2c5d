package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) flow.Store { return New() })
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, storetest.Document("a", "first")))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Nodes[0].Data.Label = "mutated"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Schedule", again.Nodes[0].Data.Label)
}

func TestStore_DropSchema(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, storetest.Document("a", "first")))
	require.NoError(t, s.DropSchema(ctx))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
