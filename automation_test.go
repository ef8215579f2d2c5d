package flow_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/storetest"
)

// clock returns a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// brokenStore fails every call with err.
type brokenStore struct{ err error }

func (s brokenStore) CreateSchema(context.Context) error                  { return s.err }
func (s brokenStore) DropSchema(context.Context) error                    { return s.err }
func (s brokenStore) Put(context.Context, *flow.Document) error           { return s.err }
func (s brokenStore) Get(context.Context, string) (*flow.Document, error) { return nil, s.err }
func (s brokenStore) List(context.Context) ([]flow.Document, error)       { return nil, s.err }
func (s brokenStore) Delete(context.Context, string) error                { return s.err }

func TestAutomations_SaveRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := flow.NewAutomations(store)

	for _, name := range []string{"", "   "} {
		doc := storetest.Document("automation_1", name)
		_, err := a.Save(ctx, doc)

		var verr *flow.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, flow.ErrValidation)
		assert.Equal(t, "Document.Name", verr.Fields[0].Field)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAutomations_SaveTimestamps(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	a := flow.NewAutomations(memory.New(), flow.WithStoreClock(clk.now))

	doc := storetest.Document("automation_1", "  Welcome  ")
	first, err := a.Save(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", first.Name)
	assert.True(t, first.Metadata.CreatedAt.Equal(clk.now()))
	assert.True(t, first.Metadata.UpdatedAt.Equal(clk.now()))
	assert.Equal(t, "  Welcome  ", doc.Name, "input untouched")

	clk.set(clk.now().Add(2 * time.Hour))
	doc.Name = "Welcome v2"
	doc.Metadata.CreatedAt = time.Time{}
	second, err := a.Save(ctx, doc)
	require.NoError(t, err)
	assert.True(t, second.Metadata.CreatedAt.Equal(first.Metadata.CreatedAt), "created_at kept")
	assert.True(t, second.Metadata.UpdatedAt.Equal(clk.now()))

	loaded, err := a.Load(ctx, "automation_1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome v2", loaded.Name)
	assert.Equal(t, doc.Changes.Insertions[0].OriginalEdge, loaded.Changes.Insertions[0].OriginalEdge)
}

func TestAutomations_SaveFillsDefaults(t *testing.T) {
	a := flow.NewAutomations(memory.New())
	saved, err := a.Save(context.Background(), &flow.Document{Name: "Empty"})
	require.NoError(t, err)

	assert.Regexp(t, `^automation_\d+_[0-9a-f]{9}$`, saved.ID)
	assert.Equal(t, flow.Horizontal, saved.Metadata.Layout)
	assert.NotNil(t, saved.Nodes)
	assert.NotNil(t, saved.Edges)

	loaded, err := a.Load(context.Background(), saved.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(loaded.Changes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"added_nodes":[],"deleted_nodes":[],"added_edges":[],"deleted_edges":[],"insertions":[]}`, string(raw))
}

func TestAutomations_SaveRejectsBrokenGraph(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *flow.Document)
		field  string
	}{
		{"dangling target", func(d *flow.Document) { d.Edges[1].Target = "gone" }, "Document.Edges[1].Target"},
		{"dangling source", func(d *flow.Document) { d.Edges[0].Source = "gone" }, "Document.Edges[0].Source"},
		{"duplicate node id", func(d *flow.Document) { d.Nodes[2].ID = d.Nodes[0].ID }, "Document.Nodes[2].ID"},
		{"duplicate edge id", func(d *flow.Document) { d.Edges[1].ID = d.Edges[0].ID }, "Document.Edges[1].ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			doc := storetest.Document("automation_1", "Broken")
			tt.mutate(doc)

			_, err := flow.NewAutomations(store).Save(ctx, doc)
			var verr *flow.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)

			got, err := store.Get(ctx, "automation_1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestAutomations_GenerateID(t *testing.T) {
	at := time.UnixMilli(1767225600123)
	a := flow.NewAutomations(memory.New(), flow.WithStoreClock(func() time.Time { return at }))

	id := a.GenerateID()
	assert.Regexp(t, `^automation_1767225600123_[0-9a-f]{9}$`, id)
	assert.NotEqual(t, id, a.GenerateID())
}

func TestAutomations_LoadMissing(t *testing.T) {
	a := flow.NewAutomations(memory.New())
	_, err := a.Load(context.Background(), "automation_missing")
	assert.ErrorIs(t, err, flow.ErrAutomationNotFound)
	assert.ErrorIs(t, err, flow.ErrNotFound)
	assert.Contains(t, err.Error(), "automation_missing")
}

func TestAutomations_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	a := flow.NewAutomations(memory.New())
	for _, id := range []string{"automation_b", "automation_a"} {
		_, err := a.Save(ctx, storetest.Document(id, id))
		require.NoError(t, err)
	}

	docs, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "automation_b", docs[0].ID)

	require.NoError(t, a.Delete(ctx, "automation_b"))
	require.NoError(t, a.Delete(ctx, "automation_b"))
	docs, err = a.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestAutomations_StoreFailures(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("disk on fire")
	a := flow.NewAutomations(brokenStore{err: cause})

	_, err := a.Save(ctx, storetest.Document("automation_1", "x"))
	var serr *flow.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "get", serr.Op)
	assert.ErrorIs(t, err, flow.ErrStore)
	assert.ErrorIs(t, err, cause)

	_, err = a.Load(ctx, "automation_1")
	assert.ErrorIs(t, err, flow.ErrStore)
	assert.NotErrorIs(t, err, flow.ErrNotFound)

	_, err = a.List(ctx)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "list", serr.Op)

	err = a.Delete(ctx, "automation_1")
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "delete", serr.Op)
}

// putFails reads through to a memory store but rejects writes.
type putFails struct {
	*memory.Store
}

func (putFails) Put(context.Context, *flow.Document) error { return errors.New("read-only") }

func TestAutomations_PutFailure(t *testing.T) {
	a := flow.NewAutomations(putFails{memory.New()})
	_, err := a.Save(context.Background(), storetest.Document("automation_1", "x"))
	var serr *flow.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "put", serr.Op)
}

func TestAutomations_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := flow.NewAutomations(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Save(ctx, storetest.Document("automation_1", "same"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
