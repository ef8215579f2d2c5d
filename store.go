package flow

import "context"

// Store defines the contract for persisting and retrieving automation documents.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Put inserts or replaces a document by ID. The first insert fixes its List position.
	Put(ctx context.Context, doc *Document) error
	// Get returns nil, nil if no document exists for id.
	Get(ctx context.Context, id string) (*Document, error)
	// List returns every document in insertion order.
	List(ctx context.Context) ([]Document, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
}
