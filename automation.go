package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Automations saves and loads automation documents through a Store.
// Saves for the same id are serialized; store errors come back as *StoreError.
type Automations struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*idLock
}

// idLock serializes writes to one id. refs counts holders and waiters.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// AutomationsOption configures Automations.
type AutomationsOption func(*Automations)

func WithStoreLogger(l zerolog.Logger) AutomationsOption {
	return func(a *Automations) { a.log = l }
}

func WithStoreClock(now func() time.Time) AutomationsOption {
	return func(a *Automations) { a.now = now }
}

// NewAutomations returns a persistence service backed by store.
func NewAutomations(store Store, opts ...AutomationsOption) *Automations {
	a := &Automations{
		store: store,
		now:   time.Now,
		log:   zerolog.Nop(),
		locks: make(map[string]*idLock),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateID returns a fresh automation id: a millisecond timestamp plus a random suffix.
func (a *Automations) GenerateID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("automation_%d_%s", a.now().UnixMilli(), suffix)
}

// lock takes the write lock for id. The entry is dropped once nobody holds or awaits it.
func (a *Automations) lock(id string) func() {
	a.mu.Lock()
	l, ok := a.locks[id]
	if !ok {
		l = &idLock{}
		a.locks[id] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, id)
		}
		a.mu.Unlock()
	}
}

// Save validates and upserts doc. A missing id is generated. On insert both timestamps
// are set to now; on update created_at is kept and updated_at refreshed.
// The stored copy is returned; doc itself is not modified.
func (a *Automations) Save(ctx context.Context, doc *Document) (*Document, error) {
	out := *doc
	out.Name = strings.TrimSpace(out.Name)
	if err := check(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = a.GenerateID()
	}
	if !out.Metadata.Layout.Valid() {
		out.Metadata.Layout = Horizontal
	}
	if err := checkGraph(&out); err != nil {
		return nil, err
	}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	out.Changes = out.Changes.normalized()

	unlock := a.lock(out.ID)
	defer unlock()

	existing, err := a.store.Get(ctx, out.ID)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	now := a.now().UTC()
	out.Metadata.UpdatedAt = now
	if existing != nil {
		out.Metadata.CreatedAt = existing.Metadata.CreatedAt
	} else {
		out.Metadata.CreatedAt = now
	}

	if err := a.store.Put(ctx, &out); err != nil {
		a.log.Error().Err(err).Str("automation_id", out.ID).Msg("save failed")
		return nil, &StoreError{Op: "put", Err: err}
	}
	a.log.Info().Str("automation_id", out.ID).Str("name", out.Name).
		Int("nodes", len(out.Nodes)).Int("edges", len(out.Edges)).Msg("automation saved")
	return &out, nil
}

// Load returns the document stored under id, or ErrAutomationNotFound.
func (a *Automations) Load(ctx context.Context, id string) (*Document, error) {
	doc, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %q", ErrAutomationNotFound, id)
	}
	return doc, nil
}

// List returns every stored document in insertion order.
func (a *Automations) List(ctx context.Context) ([]Document, error) {
	docs, err := a.store.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return docs, nil
}

// Delete removes the document stored under id. Unknown ids are ignored.
func (a *Automations) Delete(ctx context.Context, id string) error {
	unlock := a.lock(id)
	defer unlock()
	if err := a.store.Delete(ctx, id); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	a.log.Info().Str("automation_id", id).Msg("automation deleted")
	return nil
}

// checkGraph rejects documents no backend can store alike: duplicate ids and
// edges whose endpoints are not among the nodes.
func checkGraph(doc *Document) error {
	nodes := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if nodes[n.ID] {
			return invalid(fmt.Sprintf("Document.Nodes[%d].ID", i), fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
	}
	edges := make(map[string]bool, len(doc.Edges))
	for i, e := range doc.Edges {
		field := fmt.Sprintf("Document.Edges[%d]", i)
		switch {
		case edges[e.ID]:
			return invalid(field+".ID", fmt.Sprintf("duplicate edge id %q", e.ID))
		case !nodes[e.Source]:
			return invalid(field+".Source", fmt.Sprintf("unknown node %q", e.Source))
		case !nodes[e.Target]:
			return invalid(field+".Target", fmt.Sprintf("unknown node %q", e.Target))
		}
		edges[e.ID] = true
	}
	return nil
}
