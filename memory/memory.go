// Package memory implements flow.Store in process memory.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/meikuraledutech/flow"
)

// Store keeps documents in a map. Documents are stored as JSON so callers never
// share memory with the store.
type Store struct {
	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema removes every document.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string][]byte)
	s.order = nil
	return nil
}

func (s *Store) Put(ctx context.Context, doc *flow.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("flow: marshal automation %s: %w", doc.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = data
	return nil
}

// Get returns nil, nil if id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*flow.Document, error) {
	s.mu.RLock()
	data, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (s *Store) List(ctx context.Context) ([]flow.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]flow.Document, 0, len(s.order))
	for _, id := range s.order {
		d, err := decode(s.docs[id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func decode(data []byte) (*flow.Document, error) {
	var d flow.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("flow: unmarshal automation: %w", err)
	}
	return &d, nil
}

var _ flow.Store = (*Store)(nil)
