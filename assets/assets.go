// Package assets runs asynchronous scene-asset generation jobs and records
// their outcome through the storyflow store. The actual producer sits
// behind an interface; the built-in stub mirrors a real generation backend
// with a fixed delay and canned URLs.
package assets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aigehq/storyflow"
)

// Request describes one scene to generate media for.
type Request struct {
	NodeID      string
	Title       string
	Description string
}

// Result is what a producer delivers for a completed job.
type Result struct {
	Script       string
	Filename     string
	ThumbnailURL string
	VideoURL     string
}

// Producer generates media for one scene. Implementations may block until
// the backend finishes; the service runs each job on its own goroutine.
type Producer interface {
	Produce(ctx context.Context, req Request) (Result, error)
}

// Service coordinates generation jobs for a flow's scene nodes.
type Service struct {
	store    storyflow.Store
	producer Producer

	mu   sync.Mutex
	subs map[int]chan storyflow.SceneAsset
	next int
	wg   sync.WaitGroup
}

// NewService wires a producer to a store.
func NewService(store storyflow.Store, producer Producer) *Service {
	return &Service{
		store:    store,
		producer: producer,
		subs:     make(map[int]chan storyflow.SceneAsset),
	}
}

// Generate creates one generating-status record per scene node of the flow
// and kicks off a job for each. The returned records reflect the state at
// submission time; completion arrives through the store and Subscribe.
func (s *Service) Generate(ctx context.Context, f *storyflow.Flow) ([]storyflow.SceneAsset, error) {
	records := []storyflow.SceneAsset{}
	for i := range f.Nodes {
		node := &f.Nodes[i]
		if node.Kind != storyflow.KindScene {
			continue
		}

		now := time.Now().UTC()
		rec := storyflow.SceneAsset{
			ID:         uuid.NewString(),
			FlowID:     f.ID,
			NodeID:     node.ID,
			SceneTitle: node.Title,
			Status:     storyflow.AssetGenerating,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.PutAsset(ctx, &rec); err != nil {
			return nil, fmt.Errorf("assets: record job: %w", err)
		}
		records = append(records, rec)

		req := Request{NodeID: node.ID, Title: node.Title, Description: node.Description}
		s.wg.Add(1)
		go s.run(rec, req)
	}
	return records, nil
}

// Regenerate re-marks an existing record as generating and reruns its job.
func (s *Service) Regenerate(ctx context.Context, assetID string) error {
	rec, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if rec == nil {
		return storyflow.ErrAssetNotFound
	}

	rec.Status = storyflow.AssetGenerating
	rec.ErrorMessage = ""
	rec.UpdatedAt = time.Now().UTC()
	if err := s.store.PutAsset(ctx, rec); err != nil {
		return fmt.Errorf("assets: record job: %w", err)
	}

	req := Request{NodeID: rec.NodeID, Title: rec.SceneTitle}
	s.wg.Add(1)
	go s.run(*rec, req)
	return nil
}

// Subscribe returns a channel receiving every finished record (completed
// or failed) and a cancel func that must be called when done.
func (s *Service) Subscribe() (<-chan storyflow.SceneAsset, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan storyflow.SceneAsset, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Wait blocks until all in-flight jobs have finished. Intended for
// shutdown and tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// run executes one job to completion. Jobs outlive the submitting request,
// so they carry their own context.
func (s *Service) run(rec storyflow.SceneAsset, req Request) {
	defer s.wg.Done()
	ctx := context.Background()

	result, err := s.producer.Produce(ctx, req)
	rec.UpdatedAt = time.Now().UTC()
	if err != nil {
		rec.Status = storyflow.AssetFailed
		rec.ErrorMessage = err.Error()
	} else {
		rec.Status = storyflow.AssetCompleted
		rec.Script = result.Script
		rec.Filename = result.Filename
		rec.ThumbnailURL = result.ThumbnailURL
		rec.VideoURL = result.VideoURL
		rec.ErrorMessage = ""
	}

	// A failed write leaves the record in its previous state; the job
	// outcome still reaches subscribers.
	_ = s.store.PutAsset(ctx, &rec)
	s.notify(rec)
}

func (s *Service) notify(rec storyflow.SceneAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}
