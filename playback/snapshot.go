package playback

import "github.com/aigehq/storyflow"

// Snapshot is the canonical hand-off shape between the editor and the
// preview player: the finalized graph plus its designated opening node,
// passed explicitly rather than through a shared storage slot. Missing
// fields on decode default to their zero values; they never fail the load.
type Snapshot struct {
	Title          string           `json:"title,omitempty"`
	OpeningSceneID string           `json:"openingSceneId"`
	Nodes          []storyflow.Node `json:"nodes"`
	Edges          []storyflow.Edge `json:"edges"`
}

// Capture freezes a flow into a snapshot opening at openingID. An empty
// openingID falls back to the lowest-sequence node.
func Capture(f *storyflow.Flow, openingID string) *Snapshot {
	if openingID == "" {
		openingID = firstBySeq(f)
	}
	return &Snapshot{
		Title:          f.Title,
		OpeningSceneID: openingID,
		Nodes:          f.Nodes,
		Edges:          f.Edges,
	}
}

// Flow reassembles the snapshot into a playable flow value.
func (sn *Snapshot) Flow() *storyflow.Flow {
	return &storyflow.Flow{
		Title: sn.Title,
		Nodes: sn.Nodes,
		Edges: sn.Edges,
	}
}

// NewSessionFromSnapshot starts a session from a decoded snapshot.
func NewSessionFromSnapshot(sn *Snapshot) (*Session, error) {
	return NewSession(sn.Flow(), sn.OpeningSceneID)
}

func firstBySeq(f *storyflow.Flow) string {
	id := ""
	best := 0
	for i := range f.Nodes {
		if id == "" || f.Nodes[i].Seq < best {
			id = f.Nodes[i].ID
			best = f.Nodes[i].Seq
		}
	}
	return id
}
