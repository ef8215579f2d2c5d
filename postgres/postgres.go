// Package postgres implements flow.Store using PostgreSQL via pgx.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/flow"
)

// PGStore implements flow.Store using PostgreSQL via pgx.
// Nodes and edges are kept in their own tables; edges cascade with their nodes.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ flow.Store = (*PGStore)(nil)
