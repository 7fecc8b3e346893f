package storyflow

import (
	"fmt"

	"github.com/google/uuid"
)

// Mutation operations are copy-on-write: the input flow is never touched,
// callers re-render from the returned value. The single owner replaces its
// flow reference wholesale, so no locking is needed.

// BranchPatch is a partial update for one choice branch. Nil fields leave
// the existing value untouched.
type BranchPatch struct {
	Label      *string
	NextNodeID *string
}

// CanConnect reports whether a new edge from → to tagged with option may be
// added, with a human-readable reason when it may not. The only structural
// rule is the per-kind outgoing limit; cycles and self-loops are allowed.
func CanConnect(f *Flow, from, to, option string) (bool, string) {
	node := f.FindNode(from)
	if node == nil {
		return false, fmt.Sprintf("source node %q not found", from)
	}
	if f.FindNode(to) == nil {
		return false, fmt.Sprintf("target node %q not found", to)
	}

	out := f.OutgoingEdges(from)
	limit := MaxOutDegree(node.Kind)
	if len(out) >= limit {
		if limit == 1 {
			return false, fmt.Sprintf("%s already has an outgoing connection", node.Title)
		}
		return false, fmt.Sprintf("%s already has %d outgoing connections", node.Title, limit)
	}
	if node.Kind == KindChoice && option != "" {
		for _, e := range out {
			if e.Option == option {
				return false, fmt.Sprintf("option %s of %s is already connected", option, node.Title)
			}
		}
	}
	return true, ""
}

// Connect validates via CanConnect and appends the edge with a fresh ID.
// Returns ErrNodeNotFound when either endpoint is unknown and
// ErrOutDegreeExceeded (wrapping the reason) when the source is full.
func Connect(f *Flow, from, to, option string) (*Flow, error) {
	if f.FindNode(from) == nil || f.FindNode(to) == nil {
		return nil, ErrNodeNotFound
	}
	if ok, reason := CanConnect(f, from, to, option); !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutDegreeExceeded, reason)
	}

	next := f.clone()
	next.Edges = append(next.Edges, Edge{
		ID:         uuid.NewString(),
		FromNodeID: from,
		ToNodeID:   to,
		Option:     option,
	})
	return next, nil
}

// AddNode appends a new node of the given kind at (x, y), allocating the
// next sequence number and seeding kind-appropriate defaults. At most
// MaxScenes scene nodes may exist per flow.
func AddNode(f *Flow, kind NodeKind, x, y float64) (*Flow, string, error) {
	if kind == KindScene && f.CountKind(KindScene) >= MaxScenes {
		return nil, "", fmt.Errorf("%w: at most %d scenes per story", ErrSceneLimit, MaxScenes)
	}

	next := f.clone()
	seq := next.NextSeq
	if seq < 1 {
		seq = 1
	}
	next.NextSeq = seq + 1

	node := Node{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       fmt.Sprintf("%s %d", kindTitle(kind), seq),
		Description: kindDescription(kind),
		Seq:         seq,
		X:           x,
		Y:           y,
	}
	if kind == KindChoice {
		node.Branches = []Branch{{}, {}}
	}
	next.Nodes = append(next.Nodes, node)
	return next, node.ID, nil
}

// UpdateChoiceOption merges a patch into branch idx (0 or 1) of a choice
// node, preserving untouched fields. Short branch arrays from legacy flows
// are padded to two entries first.
func UpdateChoiceOption(f *Flow, nodeID string, idx int, patch BranchPatch) (*Flow, error) {
	node := f.FindNode(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}
	if node.Kind != KindChoice {
		return nil, fmt.Errorf("storyflow: node %s is not a choice point", nodeID)
	}
	if idx < 0 || idx > 1 {
		return nil, fmt.Errorf("storyflow: branch index %d out of range", idx)
	}

	next := f.clone()
	n := next.FindNode(nodeID)
	for len(n.Branches) < 2 {
		n.Branches = append(n.Branches, Branch{})
	}
	if patch.Label != nil {
		n.Branches[idx].Label = *patch.Label
	}
	if patch.NextNodeID != nil {
		n.Branches[idx].NextNodeID = *patch.NextNodeID
	}
	return next, nil
}

// UpdateSceneMedia replaces (or clears, when media is nil) one media slot
// of a scene node wholesale. No partial merge.
func UpdateSceneMedia(f *Flow, nodeID, key string, media *MediaOption) (*Flow, error) {
	node := f.FindNode(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}
	if node.Kind != KindScene {
		return nil, fmt.Errorf("storyflow: node %s is not a scene", nodeID)
	}

	var copied *MediaOption
	if media != nil {
		m := *media
		copied = &m
	}

	next := f.clone()
	n := next.FindNode(nodeID)
	switch key {
	case OptionA:
		n.MediaA = copied
	case OptionB:
		n.MediaB = copied
	default:
		return nil, fmt.Errorf("storyflow: unknown media slot %q", key)
	}
	return next, nil
}

// DeleteNode removes the node and every edge where it is source or target,
// and clears any choice branch still pointing at it. Deleting an unknown
// node is a no-op.
func DeleteNode(f *Flow, nodeID string) (*Flow, error) {
	next := f.clone()
	if next.FindNode(nodeID) == nil {
		return next, nil
	}

	nodes := next.Nodes[:0]
	for _, n := range next.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	next.Nodes = nodes

	edges := next.Edges[:0]
	for _, e := range next.Edges {
		if e.FromNodeID != nodeID && e.ToNodeID != nodeID {
			edges = append(edges, e)
		}
	}
	next.Edges = edges

	for i := range next.Nodes {
		for j := range next.Nodes[i].Branches {
			if next.Nodes[i].Branches[j].NextNodeID == nodeID {
				next.Nodes[i].Branches[j].NextNodeID = ""
			}
		}
	}
	return next, nil
}

// DeleteEdge removes an edge by ID. Unknown IDs are a no-op.
func DeleteEdge(f *Flow, edgeID string) *Flow {
	next := f.clone()
	edges := next.Edges[:0]
	for _, e := range next.Edges {
		if e.ID != edgeID {
			edges = append(edges, e)
		}
	}
	next.Edges = edges
	return next
}

// ClearFlow empties the graph and resets the sequence counter, keeping the
// flow's identity.
func ClearFlow(f *Flow) *Flow {
	return &Flow{ID: f.ID, Title: f.Title, NextSeq: 1, Nodes: []Node{}, Edges: []Edge{}}
}

// clone returns a deep copy of the flow.
func (f *Flow) clone() *Flow {
	next := &Flow{ID: f.ID, Title: f.Title, NextSeq: f.NextSeq}
	next.Nodes = make([]Node, len(f.Nodes))
	for i, n := range f.Nodes {
		if n.MediaA != nil {
			m := *n.MediaA
			n.MediaA = &m
		}
		if n.MediaB != nil {
			m := *n.MediaB
			n.MediaB = &m
		}
		if n.Branches != nil {
			n.Branches = append([]Branch(nil), n.Branches...)
		}
		next.Nodes[i] = n
	}
	next.Edges = append([]Edge(nil), f.Edges...)
	return next
}

func kindTitle(kind NodeKind) string {
	switch kind {
	case KindScene:
		return "Scene"
	case KindChoice:
		return "Choice Point"
	case KindGame:
		return "Game"
	case KindARFilter:
		return "AR Filter"
	}
	return "Node"
}

func kindDescription(kind NodeKind) string {
	switch kind {
	case KindScene:
		return "New scene description"
	case KindChoice:
		return "User choice point"
	case KindGame:
		return "Interactive game element"
	case KindARFilter:
		return "AR visual effect"
	}
	return ""
}
