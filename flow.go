package flow

import (
	"encoding/json"
	"time"
)

// Kind is the immutable type of a node.
type Kind string

const (
	KindTrigger Kind = "trigger"
	KindAction  Kind = "action"
	KindRouter  Kind = "router"
)

// Valid reports whether k is one of the known node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTrigger, KindAction, KindRouter:
		return true
	}
	return false
}

// Orientation is the layout direction of the canvas.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Handle is the side of a node an edge attaches to.
type Handle string

const (
	HandleLeft   Handle = "left"
	HandleRight  Handle = "right"
	HandleTop    Handle = "top"
	HandleBottom Handle = "bottom"
)

// Handles returns the source and target anchors for an orientation.
func (o Orientation) Handles() (source, target Handle) {
	if o == Vertical {
		return HandleBottom, HandleTop
	}
	return HandleRight, HandleLeft
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// Position is a point on the canvas. The renderer owns it; the engine only persists it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of an automation graph.
type Node struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"type"`
	Position     Position `json:"position"`
	SourceHandle Handle   `json:"source_position,omitempty"`
	TargetHandle Handle   `json:"target_position,omitempty"`
	Data         NodeData `json:"data"`
}

// NodeData holds the mutable attributes of a node.
type NodeData struct {
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Enabled     bool      `json:"enabled"`
	Settings    *Settings `json:"settings,omitempty"`
}

// UnmarshalJSON decodes d. A missing "enabled" key means enabled.
func (d *NodeData) UnmarshalJSON(data []byte) error {
	type plain NodeData
	v := plain{Enabled: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = NodeData(v)
	return nil
}

// NodeUpdate is a partial edit. Nil fields are left untouched.
type NodeUpdate struct {
	Category    *string   `json:"category,omitempty"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
	Settings    *Settings `json:"settings,omitempty"`
}

// apply merges u onto d.
func (d NodeData) apply(u NodeUpdate) NodeData {
	if u.Category != nil {
		d.Category = *u.Category
	}
	if u.Label != nil {
		d.Label = *u.Label
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Enabled != nil {
		d.Enabled = *u.Enabled
	}
	if u.Settings != nil {
		d.Settings = d.Settings.merge(u.Settings)
	}
	// Settings of another category's variant do not survive a category change.
	if d.Settings != nil && d.Settings.Variant() != SettingsVariantFor(d.Category) {
		d.Settings = nil
	}
	return d
}

// Edge is a directed connection between two nodes.
// Kind is a rendering tag carried through persistence untouched.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"type,omitempty"`
}

// DefaultEdgeKind is the rendering tag given to edges created by the engine.
const DefaultEdgeKind = "custom"

// InsertionRecord describes one edge split.
type InsertionRecord struct {
	NodeID       string    `json:"node_id"`
	OriginalEdge string    `json:"original_edge"`
	NewEdges     [2]string `json:"new_edges"`
	Timestamp    time.Time `json:"timestamp"`
}

// ChangeLog is the causal history of graph changes since the last New or Load.
type ChangeLog struct {
	AddedNodes   []string          `json:"added_nodes"`
	DeletedNodes []string          `json:"deleted_nodes"`
	AddedEdges   []string          `json:"added_edges"`
	DeletedEdges []string          `json:"deleted_edges"`
	Insertions   []InsertionRecord `json:"insertions"`
}

// normalized returns l with nil lists replaced by empty ones.
func (l ChangeLog) normalized() ChangeLog {
	if l.AddedNodes == nil {
		l.AddedNodes = []string{}
	}
	if l.DeletedNodes == nil {
		l.DeletedNodes = []string{}
	}
	if l.AddedEdges == nil {
		l.AddedEdges = []string{}
	}
	if l.DeletedEdges == nil {
		l.DeletedEdges = []string{}
	}
	if l.Insertions == nil {
		l.Insertions = []InsertionRecord{}
	}
	return l
}

// Metadata carries the layout and timestamps of a saved automation.
type Metadata struct {
	Layout    Orientation `json:"layout"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Document is the persisted form of an automation.
type Document struct {
	ID       string    `json:"id"`
	Name     string    `json:"name" validate:"required,notblank"`
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Metadata Metadata  `json:"metadata"`
	Changes  ChangeLog `json:"changes"`
}

// Counts tallies enabled nodes per kind.
type Counts struct {
	Triggers int `json:"triggers"`
	Actions  int `json:"actions"`
	Routers  int `json:"routers"`
}

// Snapshot is an immutable copy of the editor state handed to the renderer.
type Snapshot struct {
	Nodes         []Node      `json:"nodes"`
	Edges         []Edge      `json:"edges"`
	Layout        Orientation `json:"layout"`
	Changes       ChangeLog   `json:"changes"`
	Active        Counts      `json:"active"`
	Pending       int         `json:"pending"`
	PendingInsert string      `json:"pending_insert,omitempty"`
}
