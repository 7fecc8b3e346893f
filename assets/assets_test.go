package assets

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigehq/storyflow"
)

// memStore is an in-memory storyflow.Store for exercising the service
// without a database.
type memStore struct {
	mu     sync.Mutex
	flows  map[string]*storyflow.Flow
	assets map[string]storyflow.SceneAsset
}

func newMemStore() *memStore {
	return &memStore{
		flows:  make(map[string]*storyflow.Flow),
		assets: make(map[string]storyflow.SceneAsset),
	}
}

func (m *memStore) CreateSchema(ctx context.Context) error { return nil }
func (m *memStore) DropSchema(ctx context.Context) error   { return nil }

func (m *memStore) SaveFlow(ctx context.Context, f *storyflow.Flow) (*storyflow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[f.ID] = f
	return f, nil
}

func (m *memStore) GetFlow(ctx context.Context, flowID string) (*storyflow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows[flowID], nil
}

func (m *memStore) DeleteFlow(ctx context.Context, flowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, flowID)
	return nil
}

func (m *memStore) PutAsset(ctx context.Context, a *storyflow.SceneAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = *a
	return nil
}

func (m *memStore) GetAsset(ctx context.Context, assetID string) (*storyflow.SceneAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) ListAssets(ctx context.Context, flowID string) ([]storyflow.SceneAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []storyflow.SceneAsset{}
	for _, a := range m.assets {
		if a.FlowID == flowID {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

type failingProducer struct{}

func (failingProducer) Produce(ctx context.Context, req Request) (Result, error) {
	return Result{}, errors.New("render farm unavailable")
}

func storyboard() *storyflow.Flow {
	return &storyflow.Flow{
		ID: "flow-1",
		Nodes: []storyflow.Node{
			{ID: "s1", Kind: storyflow.KindScene, Title: "Opening Scene"},
			{ID: "c1", Kind: storyflow.KindChoice, Title: "Choice Point 2"},
			{ID: "s2", Kind: storyflow.KindScene, Title: "Gift Scene"},
		},
	}
}

func TestGenerateCreatesGeneratingRecords(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &StubProducer{})

	records, err := svc.Generate(context.Background(), storyboard())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Only scene nodes get jobs; records start out generating.
	nodes := []string{records[0].NodeID, records[1].NodeID}
	assert.ElementsMatch(t, []string{"s1", "s2"}, nodes)
	for _, r := range records {
		assert.Equal(t, storyflow.AssetGenerating, r.Status)
		assert.Equal(t, "flow-1", r.FlowID)
	}
}

func TestGenerateCompletesThroughStore(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &StubProducer{BaseURL: "https://cdn.example.com"})

	ch, cancel := svc.Subscribe()
	defer cancel()

	_, err := svc.Generate(context.Background(), storyboard())
	require.NoError(t, err)
	svc.Wait()

	done := collect(t, ch, 2)
	for _, rec := range done {
		assert.Equal(t, storyflow.AssetCompleted, rec.Status)
		assert.Contains(t, rec.VideoURL, "https://cdn.example.com/videos/")
		assert.NotEmpty(t, rec.Filename)
		assert.NotEmpty(t, rec.Script)
	}

	list, err := store.ListAssets(context.Background(), "flow-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, rec := range list {
		assert.Equal(t, storyflow.AssetCompleted, rec.Status)
	}
}

func TestGenerateRecordsFailure(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, failingProducer{})

	records, err := svc.Generate(context.Background(), storyboard())
	require.NoError(t, err)
	svc.Wait()

	rec, err := store.GetAsset(context.Background(), records[0].ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, storyflow.AssetFailed, rec.Status)
	assert.Equal(t, "render farm unavailable", rec.ErrorMessage)
	assert.Nil(t, rec.ImportedOption())
}

func TestRegenerate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &StubProducer{})

	records, err := svc.Generate(context.Background(), storyboard())
	require.NoError(t, err)
	svc.Wait()

	require.NoError(t, svc.Regenerate(context.Background(), records[0].ID))
	svc.Wait()

	rec, err := store.GetAsset(context.Background(), records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storyflow.AssetCompleted, rec.Status)
	assert.True(t, rec.UpdatedAt.After(records[0].UpdatedAt) || rec.UpdatedAt.Equal(records[0].UpdatedAt))
}

func TestRegenerateUnknownAsset(t *testing.T) {
	svc := NewService(newMemStore(), &StubProducer{})

	err := svc.Regenerate(context.Background(), "nope")
	assert.ErrorIs(t, err, storyflow.ErrAssetNotFound)
}

func TestImportedOption(t *testing.T) {
	rec := storyflow.SceneAsset{
		ID:           "asset-1",
		Status:       storyflow.AssetCompleted,
		Filename:     "scene_generated.mp4",
		ThumbnailURL: "https://cdn/thumb.jpg",
	}

	opt := rec.ImportedOption()
	require.NotNil(t, opt)
	assert.Equal(t, "asset-1", opt.AssetID)
	assert.True(t, opt.Imported())

	rec.Status = storyflow.AssetGenerating
	assert.Nil(t, rec.ImportedOption())
}

func TestStubProducerHonorsCancellation(t *testing.T) {
	p := &StubProducer{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Produce(ctx, Request{NodeID: "s1", Title: "Opening"})
	assert.ErrorIs(t, err, context.Canceled)
}

func collect(t *testing.T, ch <-chan storyflow.SceneAsset, n int) []storyflow.SceneAsset {
	t.Helper()
	out := []storyflow.SceneAsset{}
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case rec := <-ch:
			out = append(out, rec)
		case <-timeout:
			t.Fatalf("timed out waiting for %d records, got %d", n, len(out))
		}
	}
	return out
}
