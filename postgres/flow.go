package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aigehq/storyflow"
)

// nodePayload is the JSONB portion of a node row; id, kind, and seq live
// in their own columns.
type nodePayload struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	X           float64                `json:"x,omitempty"`
	Y           float64                `json:"y,omitempty"`
	MediaA      *storyflow.MediaOption `json:"media_a,omitempty"`
	MediaB      *storyflow.MediaOption `json:"media_b,omitempty"`
	Branches    []storyflow.Branch     `json:"branches,omitempty"`
}

// SaveFlow persists a full flow (nodes + edges) in one transaction with
// replace semantics: whatever was stored under the flow's ID before is
// superseded. Nodes/edges without IDs get auto-generated UUIDs. The
// per-kind outgoing limits are validated before anything is written.
// Returns the flow with all IDs filled in.
func (s *PGStore) SaveFlow(ctx context.Context, f *storyflow.Flow) (*storyflow.Flow, error) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == "" {
			f.Nodes[i].ID = uuid.NewString()
		}
	}
	for i := range f.Edges {
		if f.Edges[i].ID == "" {
			f.Edges[i].ID = uuid.NewString()
		}
	}

	if err := validateDegrees(f); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("storyflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO flow_meta (id, title, next_seq, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE SET title = $2, next_seq = $3, updated_at = NOW()`,
		f.ID, f.Title, f.NextSeq,
	); err != nil {
		return nil, fmt.Errorf("storyflow: upsert meta: %w", err)
	}

	// Replace semantics: drop existing rows, edges go with the nodes.
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, f.ID); err != nil {
		return nil, fmt.Errorf("storyflow: delete nodes: %w", err)
	}

	for i, n := range f.Nodes {
		data, err := json.Marshal(nodePayload{
			Title:       n.Title,
			Description: n.Description,
			X:           n.X,
			Y:           n.Y,
			MediaA:      n.MediaA,
			MediaB:      n.MediaB,
			Branches:    n.Branches,
		})
		if err != nil {
			return nil, fmt.Errorf("storyflow: encode node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_nodes (id, flow_id, kind, seq, pos, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, f.ID, string(n.Kind), n.Seq, i, data,
		); err != nil {
			return nil, fmt.Errorf("storyflow: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range f.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_edges (id, flow_id, from_node_id, to_node_id, option_tag, pos) VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, f.ID, e.FromNodeID, e.ToNodeID, e.Option, i,
		); err != nil {
			return nil, fmt.Errorf("storyflow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("storyflow: commit: %w", err)
	}

	return f, nil
}

// GetFlow retrieves a full flow (nodes + edges) by its ID, in insertion
// order. Returns nil, nil if the flow doesn't exist. Missing payload
// fields default; choice nodes are padded to two branches.
func (s *PGStore) GetFlow(ctx context.Context, flowID string) (*storyflow.Flow, error) {
	f := &storyflow.Flow{ID: flowID}
	err := s.db.QueryRow(ctx,
		`SELECT title, next_seq FROM flow_meta WHERE id = $1`, flowID,
	).Scan(&f.Title, &f.NextSeq)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storyflow: get meta: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, kind, seq, data FROM flow_nodes WHERE flow_id = $1 ORDER BY pos`, flowID)
	if err != nil {
		return nil, fmt.Errorf("storyflow: query nodes: %w", err)
	}
	defer rows.Close()

	f.Nodes = []storyflow.Node{}
	for rows.Next() {
		var (
			n    storyflow.Node
			kind string
			data []byte
		)
		if err := rows.Scan(&n.ID, &kind, &n.Seq, &data); err != nil {
			return nil, fmt.Errorf("storyflow: scan node: %w", err)
		}
		var p nodePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("storyflow: decode node %s: %w", n.ID, err)
		}
		n.Kind = storyflow.NodeKind(kind)
		n.Title = p.Title
		n.Description = p.Description
		n.X = p.X
		n.Y = p.Y
		n.MediaA = p.MediaA
		n.MediaB = p.MediaB
		n.Branches = p.Branches
		if n.Kind == storyflow.KindChoice {
			for len(n.Branches) < 2 {
				n.Branches = append(n.Branches, storyflow.Branch{})
			}
		}
		f.Nodes = append(f.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storyflow: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT id, from_node_id, to_node_id, option_tag FROM flow_edges WHERE flow_id = $1 ORDER BY pos`, flowID)
	if err != nil {
		return nil, fmt.Errorf("storyflow: query edges: %w", err)
	}
	defer rows.Close()

	f.Edges = []storyflow.Edge{}
	for rows.Next() {
		var e storyflow.Edge
		if err := rows.Scan(&e.ID, &e.FromNodeID, &e.ToNodeID, &e.Option); err != nil {
			return nil, fmt.Errorf("storyflow: scan edge: %w", err)
		}
		f.Edges = append(f.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storyflow: rows edges: %w", err)
	}

	return f, nil
}

// DeleteFlow removes the flow, its nodes and edges, and its scene-asset
// records. No error if the flowID doesn't exist.
func (s *PGStore) DeleteFlow(ctx context.Context, flowID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storyflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scene_assets WHERE flow_id = $1`, flowID); err != nil {
		return fmt.Errorf("storyflow: delete assets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_meta WHERE id = $1`, flowID); err != nil {
		return fmt.Errorf("storyflow: delete flow: %w", err)
	}

	return tx.Commit(ctx)
}

// validateDegrees checks every node against its kind's outgoing limit.
func validateDegrees(f *storyflow.Flow) error {
	counts := make(map[string]int)
	for _, e := range f.Edges {
		counts[e.FromNodeID]++
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if counts[n.ID] > storyflow.MaxOutDegree(n.Kind) {
			return fmt.Errorf("%w: node %s", storyflow.ErrOutDegreeExceeded, n.ID)
		}
	}
	return nil
}
