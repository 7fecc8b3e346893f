package storyflow

import (
	"context"
	"errors"
)

var (
	ErrNodeNotFound      = errors.New("storyflow: node not found")
	ErrAssetNotFound     = errors.New("storyflow: asset not found")
	ErrOutDegreeExceeded = errors.New("storyflow: outgoing connection limit reached")
	ErrSceneLimit        = errors.New("storyflow: scene limit reached")
)

// Store defines the contract for persisting and retrieving story flows and
// their generated scene assets.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Flows (whole-graph operations; the mutation engine works on
	// in-memory values and saves with replace semantics)
	SaveFlow(ctx context.Context, f *Flow) (*Flow, error)
	GetFlow(ctx context.Context, flowID string) (*Flow, error)
	DeleteFlow(ctx context.Context, flowID string) error

	// Scene assets
	PutAsset(ctx context.Context, a *SceneAsset) error
	GetAsset(ctx context.Context, assetID string) (*SceneAsset, error)
	ListAssets(ctx context.Context, flowID string) ([]SceneAsset, error)
}
