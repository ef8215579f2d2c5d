package flow

import "fmt"

// Event is a typed request from the renderer to the engine.
type Event interface {
	apply(e *Engine) (Result, error)
}

// PromptKind names a transient UI prompt.
type PromptKind string

const (
	PromptNotice          PromptKind = "notice"
	PromptSelectNode      PromptKind = "select-node"
	PromptChooseReconnect PromptKind = "choose-reconnect"
	PromptEditNode        PromptKind = "edit-node"
)

// Prompt asks the renderer to show something to the user.
type Prompt struct {
	Kind       PromptKind `json:"kind"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EdgeID     string     `json:"edge_id,omitempty"`
	Node       *Node      `json:"node,omitempty"`
	Candidates []Node     `json:"candidates,omitempty"`
	Insert     bool       `json:"insert,omitempty"`
}

// Result is the state after an event plus an optional prompt.
type Result struct {
	Snapshot Snapshot `json:"snapshot"`
	Prompt   *Prompt  `json:"prompt,omitempty"`
}

// Dispatch applies ev. Validation failures leave the graph unchanged.
func (e *Engine) Dispatch(ev Event) (Result, error) {
	return ev.apply(e)
}

type NodeAddRequested struct {
	Template Template
	At       *Position
}

func (ev NodeAddRequested) apply(e *Engine) (Result, error) {
	s, err := e.AddNode(ev.Template, ev.At)
	if err != nil {
		return Result{Snapshot: s}, err
	}
	return Result{Snapshot: s, Prompt: notice("Node Added",
		fmt.Sprintf("%s %q has been added to the flow.", ev.Template.Kind, ev.Template.Label))}, nil
}

type NodeRemoved struct{ ID string }

func (ev NodeRemoved) apply(e *Engine) (Result, error) {
	return Result{Snapshot: e.RemoveNode(ev.ID)}, nil
}

// EdgeRemoved removes an edge; a non-empty ReconnectTo redirects it instead.
type EdgeRemoved struct {
	ID          string
	ReconnectTo string
}

func (ev EdgeRemoved) apply(e *Engine) (Result, error) {
	mode := DeleteOnly
	if ev.ReconnectTo != "" {
		mode = Reconnect(ev.ReconnectTo)
	}
	s, err := e.RemoveEdge(ev.ID, mode)
	return Result{Snapshot: s}, err
}

// EdgeDeleteRequested asks which node, if any, the edge should be reconnected to.
// The graph is not changed until an EdgeRemoved follows.
type EdgeDeleteRequested struct{ ID string }

func (ev EdgeDeleteRequested) apply(e *Engine) (Result, error) {
	s := e.Snapshot()
	edge, ok := e.graph.Edge(ev.ID)
	if !ok {
		return Result{Snapshot: s}, nil
	}
	var candidates []Node
	for _, n := range s.Nodes {
		if n.ID == edge.Source {
			continue
		}
		if e.allowEdge(edge.Source, n.ID, edge.ID) == nil {
			candidates = append(candidates, n)
		}
	}
	return Result{Snapshot: s, Prompt: &Prompt{
		Kind:       PromptChooseReconnect,
		Title:      "Edge Deleted",
		Message:    "Choose a node to reconnect to, or confirm the deletion.",
		EdgeID:     ev.ID,
		Candidates: candidates,
	}}, nil
}

type EdgeCreated struct{ Source, Target string }

func (ev EdgeCreated) apply(e *Engine) (Result, error) {
	s, err := e.Connect(ev.Source, ev.Target)
	return Result{Snapshot: s}, err
}

// EdgeClicked arms insert mode on the edge and asks for a node template.
type EdgeClicked struct {
	ID string
	At Position
}

func (ev EdgeClicked) apply(e *Engine) (Result, error) {
	at := ev.At
	if err := e.BeginInsert(ev.ID, &at); err != nil {
		return Result{Snapshot: e.Snapshot()}, err
	}
	return Result{Snapshot: e.Snapshot(), Prompt: &Prompt{
		Kind:    PromptSelectNode,
		Title:   "Insert Node",
		Message: "Select a node to insert on this connection.",
		EdgeID:  ev.ID,
		Insert:  true,
	}}, nil
}

// InsertCancelled closes the node selection without adding anything.
type InsertCancelled struct{}

func (InsertCancelled) apply(e *Engine) (Result, error) {
	e.CancelInsert()
	return Result{Snapshot: e.Snapshot()}, nil
}

type NodeEditRequested struct{ ID string }

func (ev NodeEditRequested) apply(e *Engine) (Result, error) {
	s := e.Snapshot()
	n, ok := e.graph.Node(ev.ID)
	if !ok {
		return Result{Snapshot: s}, nil
	}
	return Result{Snapshot: s, Prompt: &Prompt{
		Kind:  PromptEditNode,
		Title: "Edit " + string(n.Kind),
		Node:  &n,
	}}, nil
}

type NodeEdited struct {
	ID     string
	Update NodeUpdate
}

func (ev NodeEdited) apply(e *Engine) (Result, error) {
	s, err := e.EditNode(ev.ID, ev.Update)
	if err != nil {
		return Result{Snapshot: s}, err
	}
	return Result{Snapshot: s, Prompt: notice("Node Updated", "Node has been updated successfully.")}, nil
}

type NodeToggleRequested struct {
	ID      string
	Enabled bool
}

func (ev NodeToggleRequested) apply(e *Engine) (Result, error) {
	s := e.ToggleNode(ev.ID, ev.Enabled)
	if ev.Enabled {
		return Result{Snapshot: s, Prompt: notice("Node Enabled", "Node has been enabled.")}, nil
	}
	return Result{Snapshot: s, Prompt: notice("Node Disabled", "Node has been disabled.")}, nil
}

type NodeMoved struct {
	ID string
	To Position
}

func (ev NodeMoved) apply(e *Engine) (Result, error) {
	return Result{Snapshot: e.MoveNode(ev.ID, ev.To)}, nil
}

type LayoutChanged struct{ Orientation Orientation }

func (ev LayoutChanged) apply(e *Engine) (Result, error) {
	s, err := e.Relayout(ev.Orientation)
	if err != nil {
		return Result{Snapshot: s}, err
	}
	return Result{Snapshot: s, Prompt: notice("Layout Changed",
		fmt.Sprintf("Flow layout changed to %s.", ev.Orientation))}, nil
}

type Cleared struct{}

func (Cleared) apply(e *Engine) (Result, error) {
	return Result{Snapshot: e.Clear()}, nil
}

func notice(title, message string) *Prompt {
	return &Prompt{Kind: PromptNotice, Title: title, Message: message}
}
