package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/flow"
)

// insertEdges writes the edges of an automation in order.
// Both endpoints must already be inserted; the foreign keys reject dangling edges.
func insertEdges(ctx context.Context, tx pgx.Tx, automationID string, edges []flow.Edge) error {
	for i, e := range edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO automation_edges (automation_id, id, source, target, kind, ord) VALUES ($1, $2, $3, $4, $5, $6)`,
			automationID, e.ID, e.Source, e.Target, e.Kind, i,
		); err != nil {
			return fmt.Errorf("flow: insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// listEdges returns the edges of an automation, in saved order.
// Returns an empty slice (not nil) if none found.
func listEdges(ctx context.Context, q querier, automationID string) ([]flow.Edge, error) {
	rows, err := q.Query(ctx,
		`SELECT id, source, target, kind FROM automation_edges WHERE automation_id = $1 ORDER BY ord`, automationID)
	if err != nil {
		return nil, fmt.Errorf("flow: list edges: %w", err)
	}
	defer rows.Close()

	edges := []flow.Edge{}
	for rows.Next() {
		var e flow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Kind); err != nil {
			return nil, fmt.Errorf("flow: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows edges: %w", err)
	}

	return edges, nil
}
