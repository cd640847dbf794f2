package comment

import "sync"

// Tree is the comment slice of the application state.
type Tree struct {
	// User is the signed-in user, nil when signed out.
	User *User
	// SandboxID is the sandbox currently open in the editor, empty when none.
	SandboxID string

	Comments         Store
	SelectedFilter   Filter
	CurrentCommentID string
	Positions        *Positions
	MultiSelector    *MultiSelector
}

// HasCurrent reports whether a comment is active.
func (t *Tree) HasCurrent() bool {
	return t.CurrentCommentID != ""
}

// ClearCurrent closes the active comment.
func (t *Tree) ClearCurrent() {
	t.CurrentCommentID = ""
	t.Positions = nil
}

// State is the state-context object handed to the comment actions. The mutex
// is held only while a callback runs; actions release it across remote calls.
type State struct {
	mu   sync.RWMutex
	tree Tree
}

// NewState returns a State seeded with t. A nil store and empty filter are
// initialized.
func NewState(t Tree) *State {
	if t.Comments == nil {
		t.Comments = make(Store)
	}
	if t.SelectedFilter == "" {
		t.SelectedFilter = FilterOpen
	}
	return &State{tree: t}
}

// Update runs fn with exclusive access to the tree.
func (s *State) Update(fn func(t *Tree)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.tree)
}

// View runs fn with shared access to the tree. fn must not mutate it.
func (s *State) View(fn func(t *Tree)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.tree)
}

// Snapshot returns a deep copy of the tree.
func (s *State) Snapshot() Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.tree
	if s.tree.User != nil {
		u := *s.tree.User
		out.User = &u
	}
	out.Comments = s.tree.Comments.Clone()
	out.Positions = s.tree.Positions.clone()
	out.MultiSelector = s.tree.MultiSelector.clone()
	return out
}
