package flow

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EdgePolicy decides which user-drawn edges are accepted by Connect and reconnects.
// The zero value rejects trigger targets and cycles.
type EdgePolicy struct {
	AllowTriggerTargets bool
	AllowCycles         bool
}

// RemoveMode selects what RemoveEdge does with the removed edge.
type RemoveMode struct {
	target string
}

// DeleteOnly removes the edge without replacement.
var DeleteOnly = RemoveMode{}

// Reconnect replaces the edge with one from the same source to target.
func Reconnect(target string) RemoveMode { return RemoveMode{target: target} }

type pendingSplit struct {
	edgeID string
	at     *Position
}

// Engine applies graph mutations and records them in a Tracker.
// It serves a single editing session and is not safe for concurrent use.
type Engine struct {
	graph   *Graph
	tracker *Tracker
	layout  Orientation
	initial Orientation
	pending *pendingSplit
	policy  EdgePolicy
	spacing float64
	newID   func(prefix string) string
	place   func() Position
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithEdgePolicy(p EdgePolicy) Option { return func(e *Engine) { e.policy = p } }

// WithOrientation sets the layout of new automations and of loaded ones that carry none.
func WithOrientation(o Orientation) Option {
	return func(e *Engine) { e.layout, e.initial = o, o }
}

// WithIDGenerator replaces the node and edge id source. prefix is the node kind or "edge".
func WithIDGenerator(fn func(prefix string) string) Option { return func(e *Engine) { e.newID = fn } }

// WithPlacement sets where nodes without an explicit position are put.
func WithPlacement(fn func() Position) Option { return func(e *Engine) { e.place = fn } }

// WithClock sets the time source for insertion records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.tracker = NewTracker(now) }
}

// WithSpacing makes Relayout line nodes up along the main axis, spacing apart.
func WithSpacing(spacing float64) Option { return func(e *Engine) { e.spacing = spacing } }

// NewEngine returns an engine over an empty graph.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		graph:   NewGraph(),
		tracker: NewTracker(time.Now),
		layout:  Horizontal,
		initial: Horizontal,
		newID:   newID,
		place:   randomPlacement,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newID(prefix string) string {
	return prefix + "-" + uuid.Must(uuid.NewV7()).String()
}

func randomPlacement() Position {
	return Position{X: rand.Float64() * 400, Y: rand.Float64() * 400}
}

// AddNode creates a node from t. A pending split (see BeginInsert) wires it into the
// split edge; otherwise it is auto-connected to the most recently added node.
func (e *Engine) AddNode(t Template, at *Position) (Snapshot, error) {
	if err := t.Validate(); err != nil {
		return e.Snapshot(), err
	}

	split := e.pending
	e.pending = nil
	if at == nil && split != nil {
		at = split.at
	}

	last, hasLast := e.graph.Last()
	node := e.newNode(t, at)
	e.graph.AddNode(node)
	e.tracker.NodeAdded(node.ID)
	e.log.Debug().Str("node_id", node.ID).Str("category", t.Category).Msg("node added")

	switch {
	case split != nil:
		edge, ok := e.graph.Edge(split.edgeID)
		if !ok {
			e.log.Warn().Str("edge_id", split.edgeID).Msg("split target vanished, node left unconnected")
			break
		}
		e.split(node.ID, edge)
	case hasLast:
		e.autoConnect(last, node)
	}
	return e.Snapshot(), nil
}

func (e *Engine) newNode(t Template, at *Position) Node {
	pos := e.place()
	if at != nil {
		pos = *at
	}
	source, target := e.layout.Handles()
	return Node{
		ID:           e.newID(string(t.Kind)),
		Kind:         t.Kind,
		Position:     pos,
		SourceHandle: source,
		TargetHandle: target,
		Data: NodeData{
			Label:       strings.TrimSpace(t.Label),
			Description: t.Description,
			Category:    t.Category,
			Enabled:     true,
		},
	}
}

// autoConnect chains node to last. Routers fan out through explicit edges only,
// and a trigger always feeds the existing chain instead of being fed by it.
func (e *Engine) autoConnect(last, node Node) {
	if last.Kind == KindRouter && node.Kind != KindTrigger {
		return
	}
	if node.Kind == KindTrigger {
		e.link(node.ID, last.ID, DefaultEdgeKind)
		return
	}
	e.link(last.ID, node.ID, DefaultEdgeKind)
}

func (e *Engine) link(source, target, kind string) Edge {
	edge := Edge{ID: e.newID("edge"), Source: source, Target: target, Kind: kind}
	if err := e.graph.AddEdge(edge); err != nil {
		// Endpoints are checked by every caller; reaching this is a bug.
		panic(fmt.Sprintf("flow: link %s->%s: %v", source, target, err))
	}
	e.tracker.EdgeAdded(edge.ID)
	e.log.Debug().Str("edge_id", edge.ID).Str("source", source).Str("target", target).Msg("edge added")
	return edge
}

func (e *Engine) split(nodeID string, edge Edge) {
	e.graph.RemoveEdge(edge.ID)
	e.tracker.EdgeDeleted(edge.ID)
	first := e.link(edge.Source, nodeID, edge.Kind)
	second := e.link(nodeID, edge.Target, edge.Kind)
	e.tracker.Inserted(nodeID, edge.ID, first.ID, second.ID)
}

// BeginInsert arms a split of edgeID; the next AddNode is placed on that edge.
func (e *Engine) BeginInsert(edgeID string, at *Position) error {
	if _, ok := e.graph.Edge(edgeID); !ok {
		return fmt.Errorf("%w: %q", ErrEdgeNotFound, edgeID)
	}
	e.pending = &pendingSplit{edgeID: edgeID, at: at}
	return nil
}

// CancelInsert disarms a pending split.
func (e *Engine) CancelInsert() { e.pending = nil }

// InsertNodeOnEdge creates a node from t and splices it into edgeID.
func (e *Engine) InsertNodeOnEdge(t Template, edgeID string, at *Position) (Snapshot, error) {
	if err := t.Validate(); err != nil {
		return e.Snapshot(), err
	}
	if err := e.BeginInsert(edgeID, at); err != nil {
		return e.Snapshot(), err
	}
	return e.AddNode(t, at)
}

// RemoveNode deletes a node and every edge touching it. Absent ids are ignored.
func (e *Engine) RemoveNode(id string) Snapshot {
	e.removeNode(id)
	return e.Snapshot()
}

func (e *Engine) removeNode(id string) {
	if _, ok := e.graph.Node(id); !ok {
		return
	}
	for _, edge := range e.graph.EdgesTouching(id) {
		e.removeEdge(edge.ID)
	}
	e.graph.RemoveNode(id)
	e.tracker.NodeDeleted(id)
	e.log.Debug().Str("node_id", id).Msg("node removed")
}

func (e *Engine) removeEdge(id string) {
	e.graph.RemoveEdge(id)
	e.tracker.EdgeDeleted(id)
	if e.pending != nil && e.pending.edgeID == id {
		e.pending = nil
	}
	e.log.Debug().Str("edge_id", id).Msg("edge removed")
}

// RemoveEdge deletes an edge, optionally replacing it with one to another node.
// An absent edge is a no-op in both modes.
func (e *Engine) RemoveEdge(id string, mode RemoveMode) (Snapshot, error) {
	edge, ok := e.graph.Edge(id)
	if !ok {
		return e.Snapshot(), nil
	}
	if mode.target != "" {
		if err := e.allowEdge(edge.Source, mode.target, edge.ID); err != nil {
			return e.Snapshot(), err
		}
	}
	e.removeEdge(id)
	if mode.target != "" {
		e.link(edge.Source, mode.target, edge.Kind)
	}
	return e.Snapshot(), nil
}

// Connect adds a user-drawn edge, subject to the engine's EdgePolicy.
func (e *Engine) Connect(source, target string) (Snapshot, error) {
	if err := e.allowEdge(source, target, ""); err != nil {
		return e.Snapshot(), err
	}
	e.link(source, target, DefaultEdgeKind)
	return e.Snapshot(), nil
}

// allowEdge checks a prospective edge source→target, ignoring the edge named skip.
func (e *Engine) allowEdge(source, target, skip string) error {
	if _, ok := e.graph.Node(source); !ok {
		return fmt.Errorf("%w: source %q", ErrNodeNotFound, source)
	}
	dst, ok := e.graph.Node(target)
	if !ok {
		return fmt.Errorf("%w: target %q", ErrNodeNotFound, target)
	}
	if source == target {
		return fmt.Errorf("%w: self-loop on %q", ErrInvalidEdge, source)
	}
	if dst.Kind == KindTrigger && !e.policy.AllowTriggerTargets {
		return fmt.Errorf("%w: %q", ErrTriggerTarget, target)
	}
	if e.graph.Connected(source, target, skip) {
		return fmt.Errorf("%w: %q already feeds %q", ErrInvalidEdge, source, target)
	}
	if !e.policy.AllowCycles && e.graph.HasPath(target, source, skip) {
		return fmt.Errorf("%w: %q -> %q", ErrCycleDetected, source, target)
	}
	return nil
}

// EditNode merges u onto a node's data. Absent ids are ignored.
func (e *Engine) EditNode(id string, u NodeUpdate) (Snapshot, error) {
	n, ok := e.graph.Node(id)
	if !ok {
		return e.Snapshot(), nil
	}
	category := n.Data.Category
	if u.Category != nil {
		if !slices.Contains(categories[n.Kind], *u.Category) {
			return e.Snapshot(), invalid("category", fmt.Sprintf("%q is not a %s category", *u.Category, n.Kind))
		}
		category = *u.Category
	}
	if u.Label != nil && strings.TrimSpace(*u.Label) == "" {
		return e.Snapshot(), invalid("label", "is required")
	}
	if err := checkSettings(category, u.Settings); err != nil {
		return e.Snapshot(), err
	}
	e.graph.UpdateNodeData(id, u)
	return e.Snapshot(), nil
}

// ToggleNode enables or disables a node. Its edges are left alone.
func (e *Engine) ToggleNode(id string, enabled bool) Snapshot {
	e.graph.UpdateNodeData(id, NodeUpdate{Enabled: &enabled})
	return e.Snapshot()
}

// Relayout switches orientation and recomputes every node's handles.
func (e *Engine) Relayout(o Orientation) (Snapshot, error) {
	if !o.Valid() {
		return e.Snapshot(), invalid("layout", fmt.Sprintf("unknown orientation %q", o))
	}
	e.layout = o
	e.graph.SetHandles(o.Handles())
	if e.spacing > 0 {
		for i, n := range e.graph.Nodes() {
			p := n.Position
			if o == Horizontal {
				p.X = float64(i) * e.spacing
			} else {
				p.Y = float64(i) * e.spacing
			}
			e.graph.MoveNode(n.ID, p)
		}
	}
	return e.Snapshot(), nil
}

// MoveNode records a position reported by the renderer.
func (e *Engine) MoveNode(id string, p Position) Snapshot {
	e.graph.MoveNode(id, p)
	return e.Snapshot()
}

// Clear removes every node through the cascade path, so the removals are recorded.
func (e *Engine) Clear() Snapshot {
	for _, n := range e.graph.Nodes() {
		e.removeNode(n.ID)
	}
	e.pending = nil
	return e.Snapshot()
}

// New starts an empty automation with no pending changes.
func (e *Engine) New() Snapshot {
	e.graph = NewGraph()
	e.tracker.Reset()
	e.pending = nil
	e.layout = e.initial
	return e.Snapshot()
}

// Load replaces the graph with doc's and makes it the new baseline.
// Edges whose endpoints are missing from doc are dropped.
func (e *Engine) Load(doc *Document) Snapshot {
	e.graph = NewGraph()
	e.pending = nil
	e.layout = e.initial
	if doc.Metadata.Layout.Valid() {
		e.layout = doc.Metadata.Layout
	}
	source, target := e.layout.Handles()
	for _, n := range doc.Nodes {
		if n.SourceHandle == "" {
			n.SourceHandle = source
		}
		if n.TargetHandle == "" {
			n.TargetHandle = target
		}
		e.graph.AddNode(n)
	}
	for _, edge := range doc.Edges {
		if err := e.graph.AddEdge(edge); err != nil {
			e.log.Warn().Err(err).Str("automation_id", doc.ID).Str("edge_id", edge.ID).Msg("dropping edge")
		}
	}
	e.tracker.Reset()
	return e.Snapshot()
}

// Document builds the persistable form of the current graph.
func (e *Engine) Document(id, name string) *Document {
	return &Document{
		ID:       id,
		Name:     name,
		Nodes:    e.graph.Nodes(),
		Edges:    e.graph.Edges(),
		Metadata: Metadata{Layout: e.layout},
		Changes:  e.tracker.Log(),
	}
}

// Node returns a copy of a node.
func (e *Engine) Node(id string) (Node, bool) { return e.graph.Node(id) }

// Net returns the session's changes reduced to their net effect.
func (e *Engine) Net() NetChanges { return e.tracker.Net() }

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Nodes:   e.graph.Nodes(),
		Edges:   e.graph.Edges(),
		Layout:  e.layout,
		Changes: e.tracker.Log(),
		Active:  e.graph.ActiveCounts(),
		Pending: e.tracker.Pending(),
	}
	if e.pending != nil {
		s.PendingInsert = e.pending.edgeID
	}
	return s
}
