// Package storetest holds the behavior every flow.Store implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
)

// Document returns a small valid automation: trigger → router → action.
func Document(id, name string) *flow.Document {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &flow.Document{
		ID:   id,
		Name: name,
		Nodes: []flow.Node{
			{
				ID: "trigger-1", Kind: flow.KindTrigger,
				Position:     flow.Position{X: 10, Y: 20},
				SourceHandle: flow.HandleRight, TargetHandle: flow.HandleLeft,
				Data: flow.NodeData{
					Label: "Schedule", Category: "time", Enabled: true,
					Settings: &flow.Settings{Schedule: &flow.ScheduleSettings{Interval: 5, Unit: "minutes"}},
				},
			},
			{
				ID: "router-1", Kind: flow.KindRouter,
				Position:     flow.Position{X: 200, Y: 20},
				SourceHandle: flow.HandleRight, TargetHandle: flow.HandleLeft,
				Data:         flow.NodeData{Label: "If/Then Router", Category: "conditional", Enabled: false},
			},
			{
				ID: "action-1", Kind: flow.KindAction,
				Position:     flow.Position{X: 400, Y: 20},
				SourceHandle: flow.HandleRight, TargetHandle: flow.HandleLeft,
				Data: flow.NodeData{
					Label: "Send Webhook", Description: "Send HTTP request", Category: "webhook", Enabled: true,
					Settings: &flow.Settings{Webhook: &flow.WebhookSettings{URL: "https://api.example.com/hook", Method: "PUT"}},
				},
			},
		},
		Edges: []flow.Edge{
			{ID: "edge-1", Source: "trigger-1", Target: "router-1", Kind: flow.DefaultEdgeKind},
			{ID: "edge-2", Source: "router-1", Target: "action-1", Kind: flow.DefaultEdgeKind},
		},
		Metadata: flow.Metadata{Layout: flow.Vertical, CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
		Changes: flow.ChangeLog{
			AddedNodes:   []string{"trigger-1", "router-1", "action-1"},
			DeletedNodes: []string{},
			AddedEdges:   []string{"edge-0", "edge-1", "edge-2"},
			DeletedEdges: []string{"edge-0"},
			Insertions: []flow.InsertionRecord{{
				NodeID: "router-1", OriginalEdge: "edge-0",
				NewEdges: [2]string{"edge-1", "edge-2"}, Timestamp: created.Add(time.Minute),
			}},
		},
	}
}

// Run exercises store. newStore must return an empty store with its schema created.
func Run(t *testing.T, newStore func(t *testing.T) flow.Store) {
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		s := newStore(t)
		d, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		s := newStore(t)
		want := Document("automation_1", "Welcome flow")
		require.NoError(t, s.Put(ctx, want))

		got, err := s.Get(ctx, "automation_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assertSameDocument(t, want, got)
	})

	t.Run("put overwrites in place", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, Document("a", "first")))
		require.NoError(t, s.Put(ctx, Document("b", "second")))

		updated := Document("a", "renamed")
		updated.Nodes = updated.Nodes[:1]
		updated.Edges = []flow.Edge{}
		require.NoError(t, s.Put(ctx, updated))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Len(t, got.Nodes, 1)
		assert.Empty(t, got.Edges)

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a", all[0].ID)
		assert.Equal(t, "b", all[1].ID)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"z", "m", "a"} {
			require.NoError(t, s.Put(ctx, Document(id, "flow "+id)))
		}
		all, err := s.List(ctx)
		require.NoError(t, err)
		ids := make([]string, len(all))
		for i, d := range all {
			ids[i] = d.ID
		}
		assert.Equal(t, []string{"z", "m", "a"}, ids)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, Document("a", "first")))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "never-existed"))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("reinsert after delete moves to end", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, Document("a", "first")))
		require.NoError(t, s.Put(ctx, Document("b", "second")))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Put(ctx, Document("a", "again")))

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "b", all[0].ID)
		assert.Equal(t, "a", all[1].ID)
	})
}

func assertSameDocument(t *testing.T, want, got *flow.Document) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Edges, got.Edges)
	assert.Equal(t, want.Metadata.Layout, got.Metadata.Layout)
	assert.True(t, want.Metadata.CreatedAt.Equal(got.Metadata.CreatedAt), "created_at")
	assert.True(t, want.Metadata.UpdatedAt.Equal(got.Metadata.UpdatedAt), "updated_at")
	assert.Equal(t, want.Changes.AddedNodes, got.Changes.AddedNodes)
	assert.Equal(t, want.Changes.DeletedNodes, got.Changes.DeletedNodes)
	assert.Equal(t, want.Changes.AddedEdges, got.Changes.AddedEdges)
	assert.Equal(t, want.Changes.DeletedEdges, got.Changes.DeletedEdges)
	require.Len(t, got.Changes.Insertions, len(want.Changes.Insertions))
	for i := range want.Changes.Insertions {
		w, g := want.Changes.Insertions[i], got.Changes.Insertions[i]
		assert.Equal(t, w.NodeID, g.NodeID)
		assert.Equal(t, w.OriginalEdge, g.OriginalEdge)
		assert.Equal(t, w.NewEdges, g.NewEdges)
		assert.True(t, w.Timestamp.Equal(g.Timestamp), "insertion timestamp")
	}
}
