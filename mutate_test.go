package storyflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestAddNodeDefaults(t *testing.T) {
	f := &Flow{ID: "flow-1", NextSeq: 1}

	f, sceneID, err := AddNode(f, KindScene, 250, 50)
	require.NoError(t, err)
	f, choiceID, err := AddNode(f, KindChoice, 250, 200)
	require.NoError(t, err)

	scene := f.FindNode(sceneID)
	require.NotNil(t, scene)
	assert.Equal(t, "Scene 1", scene.Title)
	assert.Equal(t, "New scene description", scene.Description)
	assert.Equal(t, 1, scene.Seq)
	assert.Nil(t, scene.MediaA)

	choice := f.FindNode(choiceID)
	require.NotNil(t, choice)
	assert.Equal(t, "Choice Point 2", choice.Title)
	assert.Equal(t, 2, choice.Seq)
	require.Len(t, choice.Branches, 2)
	assert.Equal(t, Branch{}, choice.Branches[0])

	assert.Equal(t, 3, f.NextSeq)
	assert.NotEqual(t, sceneID, choiceID)
}

func TestAddNodeSeqNeverReused(t *testing.T) {
	f := &Flow{ID: "flow-1", NextSeq: 1}

	f, id1, err := AddNode(f, KindScene, 0, 0)
	require.NoError(t, err)
	f, _, err = AddNode(f, KindScene, 0, 0)
	require.NoError(t, err)

	f, err = DeleteNode(f, id1)
	require.NoError(t, err)

	f, id3, err := AddNode(f, KindScene, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, f.FindNode(id3).Seq)
}

func TestAddNodeSceneLimit(t *testing.T) {
	f := &Flow{ID: "flow-1", NextSeq: 1}
	var err error
	for i := 0; i < MaxScenes; i++ {
		f, _, err = AddNode(f, KindScene, 0, 0)
		require.NoError(t, err)
	}

	_, _, err = AddNode(f, KindScene, 0, 0)
	assert.ErrorIs(t, err, ErrSceneLimit)

	// Other kinds are not capped.
	_, _, err = AddNode(f, KindGame, 0, 0)
	assert.NoError(t, err)
}

func TestCanConnect(t *testing.T) {
	f := testFlow()

	tests := []struct {
		name   string
		from   string
		to     string
		option string
		ok     bool
	}{
		{"scene with free slot", "s2", "s3", "A", true},
		{"scene already connected", "s1", "s2", "B", false},
		{"choice first edge", "c1", "s2", "A", true},
		{"unknown source", "nope", "s2", "A", false},
		{"unknown target", "s2", "nope", "A", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CanConnect(f, tt.from, tt.to, tt.option)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCanConnectChoiceLimits(t *testing.T) {
	f := testFlow()

	f, err := Connect(f, "c1", "s2", OptionA)
	require.NoError(t, err)

	// Same option slot twice is rejected before the degree limit trips.
	ok, reason := CanConnect(f, "c1", "s3", OptionA)
	assert.False(t, ok)
	assert.Contains(t, reason, "option A")

	f, err = Connect(f, "c1", "s3", OptionB)
	require.NoError(t, err)

	ok, _ = CanConnect(f, "c1", "s1", "")
	assert.False(t, ok)
}

func TestConnectRejectedLeavesGraphUnchanged(t *testing.T) {
	f := testFlow()
	require.Len(t, f.OutgoingEdges("s1"), 1)

	next, err := Connect(f, "s1", "s3", OptionB)
	assert.ErrorIs(t, err, ErrOutDegreeExceeded)
	assert.Nil(t, next)
	assert.Len(t, f.OutgoingEdges("s1"), 1)
}

func TestConnectUnknownEndpoint(t *testing.T) {
	f := testFlow()

	_, err := Connect(f, "s2", "nope", OptionA)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestConnectSelfLoopAllowed(t *testing.T) {
	// Cycles and self-loops are legal; playback tolerates revisits.
	f := testFlow()

	next, err := Connect(f, "s2", "s2", OptionA)
	require.NoError(t, err)
	assert.Equal(t, "s2", next.ResolveOption("s2", OptionA))
}

func TestConnectIsCopyOnWrite(t *testing.T) {
	f := testFlow()

	next, err := Connect(f, "s2", "s3", OptionA)
	require.NoError(t, err)
	assert.Len(t, next.Edges, 2)
	assert.Len(t, f.Edges, 1)
}

func TestUpdateChoiceOptionMerge(t *testing.T) {
	f := testFlow()

	next, err := UpdateChoiceOption(f, "c1", 0, BranchPatch{Label: strp("Take the gift")})
	require.NoError(t, err)
	assert.Equal(t, "Take the gift", next.FindNode("c1").Branches[0].Label)
	assert.Equal(t, "s2", next.FindNode("c1").Branches[0].NextNodeID)

	next, err = UpdateChoiceOption(next, "c1", 0, BranchPatch{NextNodeID: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "Take the gift", next.FindNode("c1").Branches[0].Label)
	assert.Equal(t, "", next.FindNode("c1").Branches[0].NextNodeID)

	// Untouched branch stays as it was.
	assert.Equal(t, "Host a Date Night", next.FindNode("c1").Branches[1].Label)
}

func TestUpdateChoiceOptionIdempotent(t *testing.T) {
	f := testFlow()
	patch := BranchPatch{Label: strp("Left door"), NextNodeID: strp("s3")}

	once, err := UpdateChoiceOption(f, "c1", 0, patch)
	require.NoError(t, err)
	twice, err := UpdateChoiceOption(once, "c1", 0, patch)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestUpdateChoiceOptionPadsLegacyBranches(t *testing.T) {
	f := testFlow()
	f.FindNode("c1").Branches = f.FindNode("c1").Branches[:1]

	next, err := UpdateChoiceOption(f, "c1", 1, BranchPatch{Label: strp("Added")})
	require.NoError(t, err)
	require.Len(t, next.FindNode("c1").Branches, 2)
	assert.Equal(t, "Added", next.FindNode("c1").Branches[1].Label)
}

func TestUpdateChoiceOptionErrors(t *testing.T) {
	f := testFlow()

	_, err := UpdateChoiceOption(f, "nope", 0, BranchPatch{})
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = UpdateChoiceOption(f, "s1", 0, BranchPatch{})
	assert.Error(t, err)

	_, err = UpdateChoiceOption(f, "c1", 2, BranchPatch{})
	assert.Error(t, err)
}

func TestUpdateSceneMedia(t *testing.T) {
	f := testFlow()

	imported := &MediaOption{AssetID: "asset-1", Filename: "generated.mp4"}
	next, err := UpdateSceneMedia(f, "s2", OptionB, imported)
	require.NoError(t, err)
	assert.Equal(t, imported, next.FindNode("s2").MediaB)

	// Wholesale replace, then clear.
	next, err = UpdateSceneMedia(next, "s2", OptionB, &MediaOption{SourceURL: "blob:upload"})
	require.NoError(t, err)
	assert.Equal(t, "", next.FindNode("s2").MediaB.AssetID)

	next, err = UpdateSceneMedia(next, "s2", OptionB, nil)
	require.NoError(t, err)
	assert.Nil(t, next.FindNode("s2").MediaB)
}

func TestUpdateSceneMediaErrors(t *testing.T) {
	f := testFlow()

	_, err := UpdateSceneMedia(f, "c1", OptionA, nil)
	assert.Error(t, err)

	_, err = UpdateSceneMedia(f, "s1", "C", nil)
	assert.Error(t, err)

	_, err = UpdateSceneMedia(f, "nope", OptionA, nil)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestDeleteNodeCascades(t *testing.T) {
	f := testFlow()

	next, err := DeleteNode(f, "s2")
	require.NoError(t, err)

	assert.Nil(t, next.FindNode("s2"))
	for _, e := range next.Edges {
		assert.NotEqual(t, "s2", e.FromNodeID)
		assert.NotEqual(t, "s2", e.ToNodeID)
	}
	// The choice branch that pointed at s2 is cleared, not left dangling.
	assert.Equal(t, "", next.FindNode("c1").Branches[0].NextNodeID)
	assert.Equal(t, "Give Her a Gift", next.FindNode("c1").Branches[0].Label)

	// Original untouched.
	assert.NotNil(t, f.FindNode("s2"))
}

func TestDeleteNodeRemovesTouchingEdges(t *testing.T) {
	f := testFlow()

	next, err := DeleteNode(f, "c1")
	require.NoError(t, err)
	assert.Empty(t, next.OutgoingEdges("s1"))
	assert.Empty(t, next.Edges)
}

func TestDeleteNodeUnknownIsNoop(t *testing.T) {
	f := testFlow()

	next, err := DeleteNode(f, "nope")
	require.NoError(t, err)
	assert.Len(t, next.Nodes, len(f.Nodes))
}

func TestDeleteEdge(t *testing.T) {
	f := testFlow()

	next := DeleteEdge(f, "e1")
	assert.Empty(t, next.Edges)
	assert.Len(t, f.Edges, 1)

	assert.Empty(t, DeleteEdge(next, "nope").Edges)
}

func TestClearFlow(t *testing.T) {
	f := testFlow()

	cleared := ClearFlow(f)
	assert.Equal(t, f.ID, cleared.ID)
	assert.Empty(t, cleared.Nodes)
	assert.Empty(t, cleared.Edges)
	assert.Equal(t, 1, cleared.NextSeq)
}
