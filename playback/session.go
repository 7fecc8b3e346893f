// Package playback walks a finalized story flow as a state machine. Media
// playback itself is an external side effect: the owner plays whatever
// MediaURL returns and reports back through MediaEnded and MediaFailed.
package playback

import (
	"errors"

	"github.com/aigehq/storyflow"
)

// State is the lifecycle state of a playback session.
type State string

const (
	StatePlaying        State = "playing"
	StateAwaitingChoice State = "awaiting_choice"
	StateComplete       State = "complete"
	StateError          State = "error"
)

var (
	ErrEmptyFlow     = errors.New("playback: no graph")
	ErrStartNotFound = errors.New("playback: scene not found")
)

// Error reasons surfaced through Reason while in StateError.
const (
	ReasonNodeNotFound = "node not found"
	ReasonInvalidMedia = "invalid media reference"
	ReasonMediaFailed  = "media failed to load"
)

// ReleaseFunc revokes a locally owned media handle (an object URL or
// similar) when the session is torn down.
type ReleaseFunc func(sourceURL string)

// Session drives one play-through of a story flow. It reads the flow but
// never mutates it, and is owned by a single goroutine.
type Session struct {
	flow    *storyflow.Flow
	startID string

	state   State
	current string
	visited []string
	reason  string

	assetURLs map[string]string
	release   ReleaseFunc
}

// NewSession validates the flow and starting node and begins playing at
// the start. Returns ErrEmptyFlow for a nil or empty flow and
// ErrStartNotFound when the starting ID does not resolve.
func NewSession(flow *storyflow.Flow, startID string) (*Session, error) {
	if flow == nil || len(flow.Nodes) == 0 {
		return nil, ErrEmptyFlow
	}
	if flow.FindNode(startID) == nil {
		return nil, ErrStartNotFound
	}
	return &Session{
		flow:    flow,
		startID: startID,
		state:   StatePlaying,
		current: startID,
		visited: []string{startID},
	}, nil
}

// SetAssetURLs supplies the video URL per completed asset ID, used to
// resolve imported media references.
func (s *Session) SetAssetURLs(urls map[string]string) {
	s.assetURLs = urls
}

// SetReleaseFunc installs the hook invoked per uploaded media source on
// Teardown.
func (s *Session) SetReleaseFunc(fn ReleaseFunc) {
	s.release = fn
}

// State returns the current machine state.
func (s *Session) State() State { return s.state }

// Reason returns the error reason while in StateError, "" otherwise.
func (s *Session) Reason() string { return s.reason }

// CurrentID returns the ID of the node being played or chosen on.
func (s *Session) CurrentID() string { return s.current }

// Current returns the current node, or nil if it no longer resolves.
func (s *Session) Current() *storyflow.Node { return s.flow.FindNode(s.current) }

// Visited returns a copy of the ordered path walked so far. Revisited
// nodes appear once per visit.
func (s *Session) Visited() []string {
	return append([]string(nil), s.visited...)
}

// Progress returns visited count over total node count, clamped to 1.
// Branch lengths vary, so this is a display metric, not distance-to-end.
func (s *Session) Progress() float64 {
	if len(s.flow.Nodes) == 0 {
		return 0
	}
	p := float64(len(s.visited)) / float64(len(s.flow.Nodes))
	if p > 1 {
		return 1
	}
	return p
}

// MediaURL resolves the playable media for the current node: the uploaded
// source if present, otherwise the video URL of the imported asset. An
// empty URL with nil error means the node simply has no media and the
// owner should report MediaEnded immediately. A slot that references an
// unknown asset moves the session to StateError instead of failing hard.
func (s *Session) MediaURL() (string, error) {
	node := s.flow.FindNode(s.current)
	if node == nil {
		s.fail(ReasonNodeNotFound)
		return "", errors.New(ReasonNodeNotFound)
	}

	slot := node.MediaA
	if slot == nil {
		slot = node.MediaB
	}
	if slot == nil {
		return "", nil
	}
	if slot.SourceURL != "" {
		return slot.SourceURL, nil
	}
	if slot.Imported() {
		if url, ok := s.assetURLs[slot.AssetID]; ok && url != "" {
			return url, nil
		}
	}
	s.fail(ReasonInvalidMedia)
	return "", errors.New(ReasonInvalidMedia)
}

// MediaEnded reports that the current node's media finished. The session
// moves to awaiting a choice, or straight to complete when no option slot
// points anywhere.
func (s *Session) MediaEnded() {
	if s.state != StatePlaying {
		return
	}
	if !s.flow.HasNext(s.current) {
		s.state = StateComplete
		return
	}
	s.state = StateAwaitingChoice
}

// Choose resolves the selected option ("A" or "B") and plays the target.
// An empty slot ends the story; a dangling target (node deleted since the
// branch was authored) is treated the same, never as a failure.
func (s *Session) Choose(option string) {
	if s.state != StateAwaitingChoice {
		return
	}
	next := s.flow.ResolveOption(s.current, option)
	if next == "" || s.flow.FindNode(next) == nil {
		s.state = StateComplete
		return
	}
	s.current = next
	s.visited = append(s.visited, next)
	s.state = StatePlaying
}

// MediaFailed reports that loading or playing the current media failed.
func (s *Session) MediaFailed(reason string) {
	if reason == "" {
		reason = ReasonMediaFailed
	}
	s.fail(reason)
}

// SkipToChoices recovers from a media error by forcing the choice state
// with whatever branch data exists, rather than treating the error as
// fatal.
func (s *Session) SkipToChoices() {
	if s.state != StateError {
		return
	}
	s.reason = ""
	if !s.flow.HasNext(s.current) {
		s.state = StateComplete
		return
	}
	s.state = StateAwaitingChoice
}

// Restart rewinds to the starting node and resets the visited path.
func (s *Session) Restart() {
	s.state = StatePlaying
	s.current = s.startID
	s.visited = []string{s.startID}
	s.reason = ""
}

// Teardown releases locally owned media handles through the installed
// ReleaseFunc. Call when leaving the preview or starting a new session.
func (s *Session) Teardown() {
	if s.release == nil {
		return
	}
	for i := range s.flow.Nodes {
		for _, slot := range []*storyflow.MediaOption{s.flow.Nodes[i].MediaA, s.flow.Nodes[i].MediaB} {
			if slot != nil && slot.SourceURL != "" {
				s.release(slot.SourceURL)
			}
		}
	}
}

func (s *Session) fail(reason string) {
	s.state = StateError
	s.reason = reason
}
