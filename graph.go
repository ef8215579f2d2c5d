package flow

import (
	"fmt"
	"slices"
)

// Graph is the in-memory state of one automation's nodes and edges.
// Nodes keep their creation order; removing an absent id is a no-op.
// Graph is not safe for concurrent use.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// AddNode inserts n, or replaces the node with the same ID in place.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	c := n.clone()
	g.nodes[n.ID] = &c
}

// RemoveNode deletes a node without touching its edges. Callers remove
// EdgesTouching(id) first to keep every edge endpoint valid.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(v string) bool { return v == id })
	return true
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Last returns the most recently added node that still exists.
func (g *Graph) Last() (Node, bool) {
	if len(g.order) == 0 {
		return Node{}, false
	}
	return g.Node(g.order[len(g.order)-1])
}

// Nodes returns copies of all nodes in creation order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// UpdateNodeData merges u onto the node's mutable data. ID, kind and position are untouched.
func (g *Graph) UpdateNodeData(id string, u NodeUpdate) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.Data = n.Data.apply(u)
	return true
}

// SetHandles sets the edge anchors of every node.
func (g *Graph) SetHandles(source, target Handle) {
	for _, n := range g.nodes {
		n.SourceHandle, n.TargetHandle = source, target
	}
}

// MoveNode sets a node's canvas position.
func (g *Graph) MoveNode(id string, p Position) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.Position = p
	return true
}

// AddEdge appends e. Both endpoints must exist.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("%w: source %q", ErrNodeNotFound, e.Source)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return fmt.Errorf("%w: target %q", ErrNodeNotFound, e.Target)
	}
	if e.Source == e.Target {
		return fmt.Errorf("%w: self-loop on %q", ErrInvalidEdge, e.Source)
	}
	if _, ok := g.Edge(e.ID); ok {
		return fmt.Errorf("%w: duplicate edge id %q", ErrInvalidEdge, e.ID)
	}
	g.edges = append(g.edges, e)
	return nil
}

// RemoveEdge deletes the edge and returns it.
func (g *Graph) RemoveEdge(id string) (Edge, bool) {
	i := slices.IndexFunc(g.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return Edge{}, false
	}
	e := g.edges[i]
	g.edges = slices.Delete(g.edges, i, i+1)
	return e, true
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	i := slices.IndexFunc(g.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return Edge{}, false
	}
	return g.edges[i], true
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge{}, g.edges...)
}

// EdgesTouching returns every edge with id as source or target.
func (g *Graph) EdgesTouching(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Connected reports whether an edge source→target exists other than the edge named skip.
func (g *Graph) Connected(source, target, skip string) bool {
	return slices.ContainsFunc(g.edges, func(e Edge) bool {
		return e.ID != skip && e.Source == source && e.Target == target
	})
}

// HasPath reports whether to is reachable from from. The edge named skip is ignored.
func (g *Graph) HasPath(from, to, skip string) bool {
	adj := make(map[string][]string)
	for _, e := range g.edges {
		if e.ID == skip {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// ActiveCounts tallies enabled nodes per kind.
func (g *Graph) ActiveCounts() Counts {
	var c Counts
	for _, n := range g.nodes {
		if !n.Data.Enabled {
			continue
		}
		switch n.Kind {
		case KindTrigger:
			c.Triggers++
		case KindAction:
			c.Actions++
		case KindRouter:
			c.Routers++
		}
	}
	return c
}

func (n Node) clone() Node {
	n.Data.Settings = n.Data.Settings.clone()
	return n
}
