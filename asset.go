package storyflow

import "time"

// AssetStatus is the lifecycle state of a generated scene asset.
type AssetStatus string

const (
	AssetGenerating AssetStatus = "generating"
	AssetCompleted  AssetStatus = "completed"
	AssetFailed     AssetStatus = "failed"
)

// SceneAsset is one record produced by the asset-generation service for a
// scene node. Only completed records carry usable media URLs.
type SceneAsset struct {
	ID           string      `json:"id"`
	FlowID       string      `json:"flow_id"`
	NodeID       string      `json:"node_id"`
	SceneTitle   string      `json:"scene_title"`
	Status       AssetStatus `json:"status"`
	Script       string      `json:"script,omitempty"`
	Filename     string      `json:"filename,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	VideoURL     string      `json:"video_url,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ImportedOption converts a completed asset into a media slot referencing
// it. Returns nil for generating or failed records.
func (a *SceneAsset) ImportedOption() *MediaOption {
	if a == nil || a.Status != AssetCompleted {
		return nil
	}
	return &MediaOption{
		AssetID:      a.ID,
		Filename:     a.Filename,
		ThumbnailURL: a.ThumbnailURL,
	}
}
