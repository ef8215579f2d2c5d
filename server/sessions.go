package main

import (
	"context"
	"sync"

	"github.com/meikuraledutech/flow"
)

// sessions holds the open editors, keyed by automation id.
type sessions struct {
	mu          sync.Mutex
	open        map[string]*flow.Editor
	automations *flow.Automations
	opts        []flow.Option
}

func newSessions(automations *flow.Automations, opts []flow.Option) *sessions {
	return &sessions{
		open:        make(map[string]*flow.Editor),
		automations: automations,
		opts:        opts,
	}
}

// create starts an editor for a new automation.
func (s *sessions) create() *flow.Editor {
	ed := flow.NewEditor(s.automations, s.opts...)
	s.mu.Lock()
	s.open[ed.ID()] = ed
	s.mu.Unlock()
	return ed
}

// load opens the stored automation id, reusing its editor if one is open.
func (s *sessions) load(ctx context.Context, id string) (*flow.Editor, flow.Snapshot, error) {
	s.mu.Lock()
	ed, ok := s.open[id]
	s.mu.Unlock()
	if !ok {
		ed = flow.NewEditor(s.automations, s.opts...)
	}
	snap, err := ed.Open(ctx, id)
	if err != nil {
		return nil, snap, err
	}
	s.mu.Lock()
	s.open[id] = ed
	s.mu.Unlock()
	return ed, snap, nil
}

func (s *sessions) get(id string) (*flow.Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.open[id]
	return ed, ok
}

func (s *sessions) close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, id)
}
