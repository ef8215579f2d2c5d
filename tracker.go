package flow

import (
	"slices"
	"time"
)

// Tracker records the changes made to a graph since the last Reset.
// The log is a causal history: an id added and later deleted appears in both lists.
type Tracker struct {
	log ChangeLog
	now func() time.Time
}

// NewTracker returns an empty tracker stamping insertions with now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now}
	t.Reset()
	return t
}

func (t *Tracker) NodeAdded(id string)   { t.log.AddedNodes = append(t.log.AddedNodes, id) }
func (t *Tracker) NodeDeleted(id string) { t.log.DeletedNodes = append(t.log.DeletedNodes, id) }
func (t *Tracker) EdgeAdded(id string)   { t.log.AddedEdges = append(t.log.AddedEdges, id) }
func (t *Tracker) EdgeDeleted(id string) { t.log.DeletedEdges = append(t.log.DeletedEdges, id) }

// Inserted records a split of original into first and second through node.
func (t *Tracker) Inserted(node, original, first, second string) {
	t.log.Insertions = append(t.log.Insertions, InsertionRecord{
		NodeID:       node,
		OriginalEdge: original,
		NewEdges:     [2]string{first, second},
		Timestamp:    t.now().UTC(),
	})
}

// Reset clears the log. The current graph becomes the baseline.
func (t *Tracker) Reset() {
	t.log = ChangeLog{}.normalized()
}

// Log returns a copy of the recorded changes.
func (t *Tracker) Log() ChangeLog {
	return ChangeLog{
		AddedNodes:   slices.Clone(t.log.AddedNodes),
		DeletedNodes: slices.Clone(t.log.DeletedNodes),
		AddedEdges:   slices.Clone(t.log.AddedEdges),
		DeletedEdges: slices.Clone(t.log.DeletedEdges),
		Insertions:   slices.Clone(t.log.Insertions),
	}
}

// Pending returns the number of recorded entries.
func (t *Tracker) Pending() int {
	return len(t.log.AddedNodes) + len(t.log.DeletedNodes) +
		len(t.log.AddedEdges) + len(t.log.DeletedEdges) + len(t.log.Insertions)
}

// NetChanges is a ChangeLog reduced to its effect on the baseline graph.
type NetChanges struct {
	AddedNodes   []string `json:"added_nodes"`
	DeletedNodes []string `json:"deleted_nodes"`
	AddedEdges   []string `json:"added_edges"`
	DeletedEdges []string `json:"deleted_edges"`
}

// Net reduces the log: ids both added and deleted in the session cancel out.
func (t *Tracker) Net() NetChanges {
	nodesAdded, nodesDeleted := netIDs(t.log.AddedNodes, t.log.DeletedNodes)
	edgesAdded, edgesDeleted := netIDs(t.log.AddedEdges, t.log.DeletedEdges)
	return NetChanges{
		AddedNodes:   nodesAdded,
		DeletedNodes: nodesDeleted,
		AddedEdges:   edgesAdded,
		DeletedEdges: edgesDeleted,
	}
}

func netIDs(added, deleted []string) ([]string, []string) {
	gone := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
	}
	fresh := make(map[string]bool, len(added))
	for _, id := range added {
		fresh[id] = true
	}
	a := []string{}
	for _, id := range added {
		if !gone[id] {
			a = append(a, id)
		}
	}
	d := []string{}
	for _, id := range deleted {
		if !fresh[id] {
			d = append(d, id)
		}
	}
	return a, d
}
