package flow

import (
	"context"
	"sync"
)

// Editor is one open automation: an Engine plus the persistence it saves to.
// Its methods are safe for concurrent use and are applied one at a time.
type Editor struct {
	mu          sync.Mutex
	engine      *Engine
	automations *Automations
	id          string
	name        string
}

// NewEditor starts a new, unsaved automation with a generated id.
func NewEditor(automations *Automations, opts ...Option) *Editor {
	return &Editor{
		engine:      NewEngine(opts...),
		automations: automations,
		id:          automations.GenerateID(),
	}
}

// ID returns the automation id the editor saves under.
func (ed *Editor) ID() string {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.id
}

// Name returns the name given at the last Open or Save.
func (ed *Editor) Name() string {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.name
}

// New discards the graph and starts a fresh automation with a new id.
func (ed *Editor) New() Snapshot {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.id = ed.automations.GenerateID()
	ed.name = ""
	return ed.engine.New()
}

// Open loads the automation stored under id. On failure the current graph is kept.
func (ed *Editor) Open(ctx context.Context, id string) (Snapshot, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	doc, err := ed.automations.Load(ctx, id)
	if err != nil {
		return ed.engine.Snapshot(), err
	}
	ed.id, ed.name = doc.ID, doc.Name
	return ed.engine.Load(doc), nil
}

// Save persists the current graph under the editor's id. The change log is kept.
func (ed *Editor) Save(ctx context.Context, name string) (*Document, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	saved, err := ed.automations.Save(ctx, ed.engine.Document(ed.id, name))
	if err != nil {
		return nil, err
	}
	ed.name = saved.Name
	return saved, nil
}

// Dispatch applies a renderer event.
func (ed *Editor) Dispatch(ev Event) (Result, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.engine.Dispatch(ev)
}

// Snapshot returns the current state.
func (ed *Editor) Snapshot() Snapshot {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.engine.Snapshot()
}

// Net returns the session's changes reduced to their net effect.
func (ed *Editor) Net() NetChanges {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.engine.Net()
}
