package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/flow"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// insertNodes writes the nodes of an automation in order.
// The whole node is kept in data so position, handles and settings round-trip.
func insertNodes(ctx context.Context, tx pgx.Tx, automationID string, nodes []flow.Node) error {
	for i, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("flow: marshal node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO automation_nodes (automation_id, id, kind, ord, data) VALUES ($1, $2, $3, $4, $5)`,
			automationID, n.ID, string(n.Kind), i, data,
		); err != nil {
			return fmt.Errorf("flow: insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

// listNodes returns the nodes of an automation, in saved order.
// Returns an empty slice (not nil) if none found.
func listNodes(ctx context.Context, q querier, automationID string) ([]flow.Node, error) {
	rows, err := q.Query(ctx,
		`SELECT data FROM automation_nodes WHERE automation_id = $1 ORDER BY ord`, automationID)
	if err != nil {
		return nil, fmt.Errorf("flow: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []flow.Node{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("flow: scan node: %w", err)
		}
		var n flow.Node
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("flow: unmarshal node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows nodes: %w", err)
	}

	return nodes, nil
}
