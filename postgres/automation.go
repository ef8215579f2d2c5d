package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// Put saves a full automation (row + nodes + edges) in one transaction.
// Existing nodes and edges are replaced; the row keeps its original seq.
func (s *PGStore) Put(ctx context.Context, doc *flow.Document) error {
	changes, err := json.Marshal(doc.Changes)
	if err != nil {
		return fmt.Errorf("flow: marshal changes: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO automations (id, name, layout, changes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			layout = EXCLUDED.layout,
			changes = EXCLUDED.changes,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.Name, string(doc.Metadata.Layout), changes, doc.Metadata.CreatedAt, doc.Metadata.UpdatedAt,
	); err != nil {
		return fmt.Errorf("flow: upsert automation: %w", err)
	}

	// Replace semantics: edges first, then nodes.
	if _, err := tx.Exec(ctx, `DELETE FROM automation_edges WHERE automation_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("flow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM automation_nodes WHERE automation_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("flow: delete nodes: %w", err)
	}

	if err := insertNodes(ctx, tx, doc.ID, doc.Nodes); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, doc.ID, doc.Edges); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("flow: commit: %w", err)
	}
	return nil
}

// Get retrieves a full automation by its ID.
// Returns nil, nil if it doesn't exist.
func (s *PGStore) Get(ctx context.Context, id string) (*flow.Document, error) {
	d := &flow.Document{ID: id}
	var (
		layout  string
		changes []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT name, layout, changes, created_at, updated_at FROM automations WHERE id = $1`, id,
	).Scan(&d.Name, &layout, &changes, &d.Metadata.CreatedAt, &d.Metadata.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flow: get automation: %w", err)
	}
	d.Metadata.Layout = flow.Orientation(layout)
	if err := json.Unmarshal(changes, &d.Changes); err != nil {
		return nil, fmt.Errorf("flow: unmarshal changes: %w", err)
	}

	if d.Nodes, err = listNodes(ctx, s.db, id); err != nil {
		return nil, err
	}
	if d.Edges, err = listEdges(ctx, s.db, id); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns every automation, ordered by first insert.
func (s *PGStore) List(ctx context.Context) ([]flow.Document, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM automations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("flow: list automations: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("flow: scan automation: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows automations: %w", err)
	}

	docs := make([]flow.Document, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		// Deleted between the two queries.
		if d == nil {
			continue
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

// Delete removes an automation; its nodes and edges cascade.
// No error if the id doesn't exist.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM automations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("flow: delete automation: %w", err)
	}
	return nil
}
