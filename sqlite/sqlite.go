// Package sqlite implements flow.Store on SQLite through modernc.org/sqlite.
// Each automation is one row holding the JSON document.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/meikuraledutech/flow"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS automations (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    document   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store implements flow.Store on a database/sql handle.
type Store struct {
	db *sql.DB
}

// New wraps an open SQLite handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the database file at path. A single connection is kept so that
// in-memory databases are shared and writes are serialized.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("flow: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("flow: configure sqlite: %w", err)
	}
	return New(db), nil
}

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS automations`)
	return err
}

func (s *Store) Put(ctx context.Context, doc *flow.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("flow: marshal automation %s: %w", doc.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO automations (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Name, string(data),
		doc.Metadata.CreatedAt.UnixMilli(), doc.Metadata.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("flow: save automation: %w", err)
	}
	return nil
}

// Get returns nil, nil if id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*flow.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM automations WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flow: get automation: %w", err)
	}
	return decode(data)
}

func (s *Store) List(ctx context.Context) ([]flow.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM automations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("flow: list automations: %w", err)
	}
	defer rows.Close()

	docs := []flow.Document{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("flow: scan automation: %w", err)
		}
		d, err := decode(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows automations: %w", err)
	}
	return docs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM automations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("flow: delete automation: %w", err)
	}
	return nil
}

func decode(data string) (*flow.Document, error) {
	var d flow.Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("flow: unmarshal automation: %w", err)
	}
	return &d, nil
}

var _ flow.Store = (*Store)(nil)
