package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_meta (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    next_seq   INT NOT NULL DEFAULT 1,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flow_nodes (
    id      TEXT PRIMARY KEY,
    flow_id TEXT NOT NULL REFERENCES flow_meta(id) ON DELETE CASCADE,
    kind    TEXT NOT NULL,
    seq     INT NOT NULL,
    pos     INT NOT NULL,
    data    JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS flow_edges (
    id           TEXT PRIMARY KEY,
    flow_id      TEXT NOT NULL REFERENCES flow_meta(id) ON DELETE CASCADE,
    from_node_id TEXT NOT NULL REFERENCES flow_nodes(id) ON DELETE CASCADE,
    to_node_id   TEXT NOT NULL REFERENCES flow_nodes(id) ON DELETE CASCADE,
    option_tag   TEXT NOT NULL DEFAULT '',
    pos          INT NOT NULL
);

CREATE TABLE IF NOT EXISTS scene_assets (
    id            TEXT PRIMARY KEY,
    flow_id       TEXT NOT NULL,
    node_id       TEXT NOT NULL,
    scene_title   TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    script        TEXT NOT NULL DEFAULT '',
    filename      TEXT NOT NULL DEFAULT '',
    thumbnail_url TEXT NOT NULL DEFAULT '',
    video_url     TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flow_nodes_flow_id   ON flow_nodes(flow_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_flow_id   ON flow_edges(flow_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_from      ON flow_edges(from_node_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_to        ON flow_edges(to_node_id);
CREATE INDEX IF NOT EXISTS idx_scene_assets_flow_id ON scene_assets(flow_id);
`

// CreateSchema creates the flow and scene-asset tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops all storyflow tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS scene_assets, flow_edges, flow_nodes, flow_meta CASCADE;`)
	return err
}
