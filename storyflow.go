package storyflow

// NodeKind identifies what a node represents in the story graph.
type NodeKind string

const (
	KindScene    NodeKind = "scene"
	KindChoice   NodeKind = "choice"
	KindGame     NodeKind = "game"
	KindARFilter NodeKind = "ar_filter"
)

// Option keys for media slots, branch slots, and tagged edges.
const (
	OptionA = "A"
	OptionB = "B"
)

// MaxScenes is the authoring limit on scene nodes per flow.
// A product rule, not a structural one.
const MaxScenes = 5

// Flow is the top-level story graph: a set of nodes plus the directed
// connections between them.
type Flow struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	NextSeq int    `json:"next_seq"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Node represents a vertex in the story graph.
// Seq is a monotonically increasing author-facing number, allocated from
// Flow.NextSeq and never reused, even after deletions.
type Node struct {
	ID          string   `json:"id,omitempty"`
	Kind        NodeKind `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Seq         int      `json:"seq"`
	X           float64  `json:"x,omitempty"`
	Y           float64  `json:"y,omitempty"`

	// Scene payload: up to two alternative media slots. Nil means empty.
	MediaA *MediaOption `json:"media_a,omitempty"`
	MediaB *MediaOption `json:"media_b,omitempty"`

	// Choice payload: two labeled branches. Legacy flows may carry fewer;
	// readers pad on access.
	Branches []Branch `json:"branches,omitempty"`
}

// Edge represents a directed connection between two nodes.
// Option tags which source slot ("A"/"B") the edge represents; untagged
// edges fall back to insertion order during resolution.
type Edge struct {
	ID         string `json:"id,omitempty"`
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	Option     string `json:"option,omitempty"`
}

// MediaOption is one media slot on a scene node. Exactly one of SourceURL
// (locally owned upload) or AssetID (reference into the asset-generation
// service) is set.
type MediaOption struct {
	SourceURL    string `json:"source_url,omitempty"`
	AssetID      string `json:"asset_id,omitempty"`
	Filename     string `json:"filename,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Imported reports whether the slot references a generated asset rather
// than an uploaded byte source.
func (m *MediaOption) Imported() bool {
	return m != nil && m.AssetID != ""
}

// Branch is one labeled option on a choice node. An empty NextNodeID
// means "end of path".
type Branch struct {
	Label      string `json:"label"`
	NextNodeID string `json:"next_node_id,omitempty"`
}

// MaxOutDegree returns the outgoing-connection limit for a node kind:
// choice nodes branch two ways, everything else continues linearly.
func MaxOutDegree(kind NodeKind) int {
	if kind == KindChoice {
		return 2
	}
	return 1
}
