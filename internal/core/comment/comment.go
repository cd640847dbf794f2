// Package comment defines the comment records, the per-sandbox comment store,
// and the selection state shared by every comment action.
package comment

import (
	"errors"
	"slices"
	"time"
)

// OptimisticCommentID is the reserved id of a comment that is being composed
// but has not been persisted yet.
const OptimisticCommentID = "__OPTIMISTIC_COMMENT__"

// OptimisticReferenceID is the reserved id of the code reference attached to
// an optimistic comment.
const OptimisticReferenceID = "__OPTIMISTIC__"

// ErrCommentNotFound is returned when a comment id is not known to the server.
var ErrCommentNotFound = errors.New("comment not found")

// ReferenceType identifies the kind of attachment a comment carries.
type ReferenceType string

const (
	ReferenceCode ReferenceType = "code"
)

// User is the author snapshot stored on each comment.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// Ref is a stub pointing at another comment by id.
type Ref struct {
	ID string `json:"id"`
}

// CodeReference anchors a comment to a character range within a file.
// Anchor and Head are rune offsets; Head may be smaller than Anchor for
// backwards selections.
type CodeReference struct {
	Anchor int    `json:"anchor"`
	Head   int    `json:"head"`
	Code   string `json:"code"`
	Path   string `json:"path"`
}

// Start returns the smaller of Anchor and Head.
func (r CodeReference) Start() int { return min(r.Anchor, r.Head) }

// End returns the larger of Anchor and Head.
func (r CodeReference) End() int { return max(r.Anchor, r.Head) }

// Reference is a typed attachment on a comment.
type Reference struct {
	ID       string        `json:"id"`
	Type     ReferenceType `json:"type"`
	Metadata CodeReference `json:"metadata"`
	Resource string        `json:"resource"`
}

// Comment is a single comment record. Child comments are listed as stubs and
// resolved through the Store.
type Comment struct {
	ID            string      `json:"id"`
	ParentComment *Ref        `json:"parentComment"`
	InsertedAt    time.Time   `json:"insertedAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Content       string      `json:"content"`
	IsResolved    bool        `json:"isResolved"`
	User          User        `json:"user"`
	References    []Reference `json:"references"`
	Comments      []Ref       `json:"comments"`
}

// IsOptimistic reports whether c is the unsaved placeholder.
func (c *Comment) IsOptimistic() bool {
	return c.ID == OptimisticCommentID
}

// CodeReference returns the comment's first reference when it is a code
// reference.
func (c *Comment) CodeReference() (*Reference, bool) {
	if len(c.References) == 0 || c.References[0].Type != ReferenceCode {
		return nil, false
	}
	return &c.References[0], true
}

// ChildIndex returns the position of the child stub with the given id, or -1.
func (c *Comment) ChildIndex(id string) int {
	return slices.IndexFunc(c.Comments, func(r Ref) bool { return r.ID == id })
}

// AppendChild appends a child stub.
func (c *Comment) AppendChild(id string) {
	c.Comments = append(c.Comments, Ref{ID: id})
}

// ReplaceChild swaps the stub oldID for newID in place. Returns false when
// oldID is not a child.
func (c *Comment) ReplaceChild(oldID, newID string) bool {
	idx := c.ChildIndex(oldID)
	if idx < 0 {
		return false
	}
	if c.ChildIndex(newID) >= 0 {
		c.Comments = slices.Delete(c.Comments, idx, idx+1)
		return true
	}
	c.Comments[idx] = Ref{ID: newID}
	return true
}

// RemoveChild removes the stub with the given id and returns its former
// position, or -1 when it was not present.
func (c *Comment) RemoveChild(id string) int {
	idx := c.ChildIndex(id)
	if idx >= 0 {
		c.Comments = slices.Delete(c.Comments, idx, idx+1)
	}
	return idx
}

// InsertChild inserts a stub at idx, clamped to the list bounds.
func (c *Comment) InsertChild(idx int, id string) {
	idx = max(0, min(idx, len(c.Comments)))
	c.Comments = slices.Insert(c.Comments, idx, Ref{ID: id})
}

// Clone returns a deep copy of c.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := *c
	if c.ParentComment != nil {
		p := *c.ParentComment
		out.ParentComment = &p
	}
	out.References = slices.Clone(c.References)
	out.Comments = slices.Clone(c.Comments)
	return &out
}
