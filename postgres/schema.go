package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS automations (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    layout     TEXT NOT NULL DEFAULT 'horizontal',
    changes    JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS automation_nodes (
    automation_id TEXT NOT NULL REFERENCES automations(id) ON DELETE CASCADE,
    id            TEXT NOT NULL,
    kind          TEXT NOT NULL,
    ord           INT NOT NULL,
    data          JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (automation_id, id)
);

CREATE TABLE IF NOT EXISTS automation_edges (
    automation_id TEXT NOT NULL,
    id            TEXT NOT NULL,
    source        TEXT NOT NULL,
    target        TEXT NOT NULL,
    kind          TEXT NOT NULL DEFAULT '',
    ord           INT NOT NULL,
    PRIMARY KEY (automation_id, id),
    FOREIGN KEY (automation_id, source) REFERENCES automation_nodes(automation_id, id) ON DELETE CASCADE,
    FOREIGN KEY (automation_id, target) REFERENCES automation_nodes(automation_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_automation_nodes_automation ON automation_nodes(automation_id);
CREATE INDEX IF NOT EXISTS idx_automation_edges_automation ON automation_edges(automation_id);
CREATE INDEX IF NOT EXISTS idx_automation_edges_source     ON automation_edges(automation_id, source);
CREATE INDEX IF NOT EXISTS idx_automation_edges_target     ON automation_edges(automation_id, target);
`

// CreateSchema creates the automation tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the automation tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS automation_edges, automation_nodes, automations CASCADE;`)
	return err
}
