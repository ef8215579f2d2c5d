package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/memory"
)

func addTemplate(t *testing.T, ed *flow.Editor, kind flow.Kind, label string) flow.Snapshot {
	t.Helper()
	tpl, ok := flow.Lookup(kind, label)
	require.True(t, ok)
	res, err := ed.Dispatch(flow.NodeAddRequested{Template: tpl})
	require.NoError(t, err)
	return res.Snapshot
}

func TestEditor_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	a := flow.NewAutomations(memory.New())
	ed := flow.NewEditor(a, flow.WithOrientation(flow.Vertical))
	assert.Regexp(t, `^automation_`, ed.ID())

	addTemplate(t, ed, flow.KindTrigger, "Form Submission")
	snap := addTemplate(t, ed, flow.KindAction, "Create Record")

	saved, err := ed.Save(ctx, "Lead capture")
	require.NoError(t, err)
	assert.Equal(t, ed.ID(), saved.ID)
	assert.Equal(t, "Lead capture", ed.Name())
	assert.Equal(t, flow.Vertical, saved.Metadata.Layout)
	assert.Len(t, saved.Changes.AddedNodes, 2)
	assert.Len(t, ed.Snapshot().Changes.AddedNodes, 2, "save keeps the log")

	other := flow.NewEditor(a)
	opened, err := other.Open(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, other.ID())
	assert.Equal(t, "Lead capture", other.Name())
	assert.Equal(t, snap.Nodes, opened.Nodes)
	assert.Equal(t, snap.Edges, opened.Edges)
	assert.Equal(t, flow.Vertical, opened.Layout)
	assert.Empty(t, opened.Changes.AddedNodes)
}

func TestEditor_SaveEmptyName(t *testing.T) {
	ctx := context.Background()
	a := flow.NewAutomations(memory.New())
	ed := flow.NewEditor(a)
	addTemplate(t, ed, flow.KindTrigger, "Schedule")

	_, err := ed.Save(ctx, " ")
	assert.ErrorIs(t, err, flow.ErrValidation)
	assert.Empty(t, ed.Name())

	docs, err := a.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEditor_OpenMissingKeepsGraph(t *testing.T) {
	ed := flow.NewEditor(flow.NewAutomations(memory.New()))
	id := ed.ID()
	addTemplate(t, ed, flow.KindTrigger, "Schedule")

	snap, err := ed.Open(context.Background(), "automation_missing")
	assert.ErrorIs(t, err, flow.ErrAutomationNotFound)
	assert.Len(t, snap.Nodes, 1)
	assert.Equal(t, id, ed.ID())
}

func TestEditor_New(t *testing.T) {
	ed := flow.NewEditor(flow.NewAutomations(memory.New()))
	addTemplate(t, ed, flow.KindTrigger, "Schedule")
	_, err := ed.Save(context.Background(), "first")
	require.NoError(t, err)
	before := ed.ID()

	snap := ed.New()
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, ed.Name())
	assert.NotEqual(t, before, ed.ID())
	assert.Empty(t, ed.Net().AddedNodes)
}

func TestEditor_Net(t *testing.T) {
	ed := flow.NewEditor(flow.NewAutomations(memory.New()))
	snap := addTemplate(t, ed, flow.KindTrigger, "Schedule")
	addTemplate(t, ed, flow.KindAction, "Send Email")

	res, err := ed.Dispatch(flow.Cleared{})
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Nodes)

	net := ed.Net()
	assert.Empty(t, net.AddedNodes)
	assert.NotContains(t, net.DeletedNodes, snap.Nodes[0].ID)
}
