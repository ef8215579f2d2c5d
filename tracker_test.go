package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_AppendsInOrder(t *testing.T) {
	tr := NewTracker(func() time.Time { return testNow.In(time.FixedZone("X", 3600)) })
	tr.NodeAdded("n1")
	tr.NodeAdded("n2")
	tr.EdgeAdded("e1")
	tr.EdgeDeleted("e1")
	tr.NodeDeleted("n1")
	tr.Inserted("n2", "e0", "e2", "e3")

	log := tr.Log()
	assert.Equal(t, []string{"n1", "n2"}, log.AddedNodes)
	assert.Equal(t, []string{"n1"}, log.DeletedNodes)
	assert.Equal(t, []string{"e1"}, log.AddedEdges)
	assert.Equal(t, []string{"e1"}, log.DeletedEdges)
	assert.Equal(t, []InsertionRecord{{
		NodeID: "n2", OriginalEdge: "e0", NewEdges: [2]string{"e2", "e3"}, Timestamp: testNow,
	}}, log.Insertions)
	assert.Equal(t, 6, tr.Pending())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(nil)
	tr.NodeAdded("n1")
	tr.Reset()

	log := tr.Log()
	assert.Equal(t, 0, tr.Pending())
	assert.NotNil(t, log.AddedNodes)
	assert.NotNil(t, log.Insertions)
	assert.Empty(t, log.AddedNodes)
}

func TestTracker_LogIsACopy(t *testing.T) {
	tr := NewTracker(nil)
	tr.NodeAdded("n1")
	log := tr.Log()
	log.AddedNodes[0] = "changed"
	assert.Equal(t, []string{"n1"}, tr.Log().AddedNodes)
}

func TestTracker_Net(t *testing.T) {
	tr := NewTracker(nil)
	tr.NodeAdded("fresh")
	tr.NodeAdded("temp")
	tr.NodeDeleted("temp")
	tr.NodeDeleted("baseline")
	tr.EdgeAdded("e-new")
	tr.EdgeDeleted("e-old")

	net := tr.Net()
	assert.Equal(t, []string{"fresh"}, net.AddedNodes)
	assert.Equal(t, []string{"baseline"}, net.DeletedNodes)
	assert.Equal(t, []string{"e-new"}, net.AddedEdges)
	assert.Equal(t, []string{"e-old"}, net.DeletedEdges)
}
