package postgres

import (
	"context"
	"fmt"

	"github.com/aigehq/storyflow"
)

// PutAsset inserts or updates a scene-asset record by its ID.
func (s *PGStore) PutAsset(ctx context.Context, a *storyflow.SceneAsset) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO scene_assets
		   (id, flow_id, node_id, scene_title, status, script, filename, thumbnail_url, video_url, error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   status = $5, script = $6, filename = $7, thumbnail_url = $8,
		   video_url = $9, error_message = $10, updated_at = $12`,
		a.ID, a.FlowID, a.NodeID, a.SceneTitle, string(a.Status), a.Script,
		a.Filename, a.ThumbnailURL, a.VideoURL, a.ErrorMessage, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("storyflow: put asset: %w", err)
	}
	return nil
}

// GetAsset fetches a single scene-asset record by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetAsset(ctx context.Context, assetID string) (*storyflow.SceneAsset, error) {
	var (
		a      storyflow.SceneAsset
		status string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, flow_id, node_id, scene_title, status, script, filename, thumbnail_url, video_url, error_message, created_at, updated_at
		 FROM scene_assets WHERE id = $1`, assetID,
	).Scan(&a.ID, &a.FlowID, &a.NodeID, &a.SceneTitle, &status, &a.Script,
		&a.Filename, &a.ThumbnailURL, &a.VideoURL, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storyflow: get asset: %w", err)
	}
	a.Status = storyflow.AssetStatus(status)
	return &a, nil
}

// ListAssets returns all scene-asset records for a flow, most recently
// updated first. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListAssets(ctx context.Context, flowID string) ([]storyflow.SceneAsset, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, flow_id, node_id, scene_title, status, script, filename, thumbnail_url, video_url, error_message, created_at, updated_at
		 FROM scene_assets WHERE flow_id = $1 ORDER BY updated_at DESC`, flowID)
	if err != nil {
		return nil, fmt.Errorf("storyflow: list assets: %w", err)
	}
	defer rows.Close()

	assets := []storyflow.SceneAsset{}
	for rows.Next() {
		var (
			a      storyflow.SceneAsset
			status string
		)
		if err := rows.Scan(&a.ID, &a.FlowID, &a.NodeID, &a.SceneTitle, &status, &a.Script,
			&a.Filename, &a.ThumbnailURL, &a.VideoURL, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storyflow: scan asset: %w", err)
		}
		a.Status = storyflow.AssetStatus(status)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storyflow: rows assets: %w", err)
	}

	return assets, nil
}
