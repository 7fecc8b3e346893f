package storyflow

// FindNode returns the node with the given ID, or nil if absent.
func (f *Flow) FindNode(nodeID string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == nodeID {
			return &f.Nodes[i]
		}
	}
	return nil
}

// CountKind returns how many nodes of the given kind the flow contains.
func (f *Flow) CountKind(kind NodeKind) int {
	n := 0
	for i := range f.Nodes {
		if f.Nodes[i].Kind == kind {
			n++
		}
	}
	return n
}

// OutgoingEdges returns all edges whose source is nodeID, in insertion
// order. Returns an empty slice (not nil) if none found.
func (f *Flow) OutgoingEdges(nodeID string) []Edge {
	out := []Edge{}
	for _, e := range f.Edges {
		if e.FromNodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// ResolveOption returns the successor node ID for the given option slot
// ("A" or "B") of nodeID, or "" when the slot is empty or the node is
// unknown. Choice nodes resolve through their inline branches; all other
// kinds resolve through their outgoing edges, matching the edge's option
// tag first and falling back to insertion order for untagged legacy edges.
//
// The returned ID is not checked for existence: a branch may dangle after
// its target was deleted from legacy data, and callers treat a dangling
// target the same as end-of-path.
func (f *Flow) ResolveOption(nodeID, option string) string {
	node := f.FindNode(nodeID)
	if node == nil {
		return ""
	}

	if node.Kind == KindChoice {
		idx := optionIndex(option)
		if idx < 0 || idx >= len(node.Branches) {
			return ""
		}
		return node.Branches[idx].NextNodeID
	}

	out := f.OutgoingEdges(nodeID)
	for _, e := range out {
		if e.Option == option {
			return e.ToNodeID
		}
	}
	// Positional fallback: option A is the first untagged edge, B the second.
	idx := optionIndex(option)
	if idx < 0 || idx >= len(out) {
		return ""
	}
	if out[idx].Option != "" {
		return ""
	}
	return out[idx].ToNodeID
}

// BranchTargets returns the two successor IDs of nodeID as an [A, B] pair,
// the derived nextNodeId-style view over both link representations. Empty
// strings mark empty slots.
func (f *Flow) BranchTargets(nodeID string) [2]string {
	return [2]string{
		f.ResolveOption(nodeID, OptionA),
		f.ResolveOption(nodeID, OptionB),
	}
}

// HasNext reports whether any option slot of nodeID points somewhere.
// Dangling targets still count: whether they resolve is a playback
// concern, not a structural one.
func (f *Flow) HasNext(nodeID string) bool {
	t := f.BranchTargets(nodeID)
	return t[0] != "" || t[1] != ""
}

// optionIndex maps "A" → 0 and "B" → 1; anything else → -1.
func optionIndex(option string) int {
	switch option {
	case OptionA:
		return 0
	case OptionB:
		return 1
	}
	return -1
}
