package comment

import (
	"slices"
	"strings"
)

// Store maps sandbox id to comment id to comment record. Records are mutated
// in place.
type Store map[string]map[string]*Comment

// Get returns the comment with id in the given sandbox.
func (s Store) Get(sandboxID, id string) (*Comment, bool) {
	c, ok := s[sandboxID][id]
	return c, ok && c != nil
}

// Put inserts c under its id, creating the sandbox map when missing.
func (s Store) Put(sandboxID string, c *Comment) {
	if s[sandboxID] == nil {
		s[sandboxID] = make(map[string]*Comment)
	}
	s[sandboxID][c.ID] = c
}

// Delete removes the comment with id from the sandbox.
func (s Store) Delete(sandboxID, id string) {
	delete(s[sandboxID], id)
}

// Sandbox returns the comments of one sandbox, creating the map when missing.
func (s Store) Sandbox(sandboxID string) map[string]*Comment {
	if s[sandboxID] == nil {
		s[sandboxID] = make(map[string]*Comment)
	}
	return s[sandboxID]
}

// Replace discards every comment of the sandbox and stores comments instead.
func (s Store) Replace(sandboxID string, comments []*Comment) {
	m := make(map[string]*Comment, len(comments))
	for _, c := range comments {
		m[c.ID] = c
	}
	s[sandboxID] = m
}

// Threads returns the top-level comments of a sandbox, oldest first, that
// match the filter. The optimistic placeholder is always included.
func (s Store) Threads(sandboxID string, f Filter) []*Comment {
	var out []*Comment
	for _, c := range s[sandboxID] {
		if c.ParentComment != nil {
			continue
		}
		if !c.IsOptimistic() && !f.Match(c) {
			continue
		}
		out = append(out, c)
	}
	sortComments(out)
	return out
}

// Replies resolves the child stubs of parent, skipping stubs whose record is
// not loaded.
func (s Store) Replies(sandboxID string, parent *Comment) []*Comment {
	out := make([]*Comment, 0, len(parent.Comments))
	for _, ref := range parent.Comments {
		if c, ok := s.Get(sandboxID, ref.ID); ok {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for sandboxID, comments := range s {
		m := make(map[string]*Comment, len(comments))
		for id, c := range comments {
			m[id] = c.Clone()
		}
		out[sandboxID] = m
	}
	return out
}

func sortComments(cs []*Comment) {
	slices.SortFunc(cs, func(a, b *Comment) int {
		if c := a.InsertedAt.Compare(b.InsertedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
