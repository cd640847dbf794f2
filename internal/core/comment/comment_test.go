package comment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComment_CodeReference(t *testing.T) {
	c := &Comment{ID: "a"}
	_, ok := c.CodeReference()
	assert.False(t, ok)

	c.References = []Reference{{ID: "r1", Type: ReferenceCode, Metadata: CodeReference{Path: "/src/index.js"}}}
	ref, ok := c.CodeReference()
	require.True(t, ok)
	assert.Equal(t, "/src/index.js", ref.Metadata.Path)
}

func TestComment_ReplaceChild_keeps_position(t *testing.T) {
	c := &Comment{Comments: []Ref{{ID: "a"}, {ID: OptimisticCommentID}, {ID: "b"}}}

	ok := c.ReplaceChild(OptimisticCommentID, "real")

	require.True(t, ok)
	assert.Equal(t, []Ref{{ID: "a"}, {ID: "real"}, {ID: "b"}}, c.Comments)
}

func TestComment_ReplaceChild_no_duplicate(t *testing.T) {
	c := &Comment{Comments: []Ref{{ID: "real"}, {ID: OptimisticCommentID}}}

	ok := c.ReplaceChild(OptimisticCommentID, "real")

	require.True(t, ok)
	assert.Equal(t, []Ref{{ID: "real"}}, c.Comments)
}

func TestComment_RemoveAndInsertChild(t *testing.T) {
	c := &Comment{Comments: []Ref{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	idx := c.RemoveChild("b")
	assert.Equal(t, 1, idx)
	assert.Equal(t, []Ref{{ID: "a"}, {ID: "c"}}, c.Comments)

	c.InsertChild(idx, "b")
	assert.Equal(t, []Ref{{ID: "a"}, {ID: "b"}, {ID: "c"}}, c.Comments)

	assert.Equal(t, -1, c.RemoveChild("missing"))
	c.InsertChild(99, "z")
	assert.Equal(t, "z", c.Comments[len(c.Comments)-1].ID)
}

func TestComment_Clone_is_deep(t *testing.T) {
	orig := &Comment{
		ID:            "a",
		ParentComment: &Ref{ID: "p"},
		References:    []Reference{{ID: "r", Type: ReferenceCode}},
		Comments:      []Ref{{ID: "c1"}},
	}

	cp := orig.Clone()
	cp.ParentComment.ID = "changed"
	cp.References[0].ID = "changed"
	cp.Comments[0].ID = "changed"

	assert.Equal(t, "p", orig.ParentComment.ID)
	assert.Equal(t, "r", orig.References[0].ID)
	assert.Equal(t, "c1", orig.Comments[0].ID)
}

func TestCodeReference_StartEnd(t *testing.T) {
	r := CodeReference{Anchor: 10, Head: 4}
	assert.Equal(t, 4, r.Start())
	assert.Equal(t, 10, r.End())
}

func TestStore_Threads_filters_and_sorts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(Store)
	s.Put("sb", &Comment{ID: "open-late", InsertedAt: base.Add(2 * time.Hour)})
	s.Put("sb", &Comment{ID: "open-early", InsertedAt: base})
	s.Put("sb", &Comment{ID: "resolved", IsResolved: true, InsertedAt: base.Add(time.Hour)})
	s.Put("sb", &Comment{ID: "reply", ParentComment: &Ref{ID: "open-early"}})
	s.Put("sb", &Comment{ID: OptimisticCommentID, IsResolved: true})

	ids := func(cs []*Comment) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{OptimisticCommentID, "open-early", "open-late"}, ids(s.Threads("sb", FilterOpen)))
	assert.Equal(t, []string{OptimisticCommentID, "resolved"}, ids(s.Threads("sb", FilterResolved)))
	assert.Len(t, s.Threads("sb", FilterAll), 4)
	assert.Empty(t, s.Threads("other", FilterAll))
}

func TestStore_Replies_skips_unloaded(t *testing.T) {
	s := make(Store)
	parent := &Comment{ID: "p", Comments: []Ref{{ID: "c1"}, {ID: "c2"}}}
	s.Put("sb", parent)
	s.Put("sb", &Comment{ID: "c2"})

	replies := s.Replies("sb", parent)

	require.Len(t, replies, 1)
	assert.Equal(t, "c2", replies[0].ID)
}

func TestStore_Get_missing_sandbox(t *testing.T) {
	s := make(Store)
	_, ok := s.Get("nope", "a")
	assert.False(t, ok)
	s.Delete("nope", "a") // must not panic
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("resolved")
	require.NoError(t, err)
	assert.Equal(t, FilterResolved, f)

	_, err = ParseFilter("mine")
	assert.Error(t, err)
}

func TestFilter_Next_cycles(t *testing.T) {
	assert.Equal(t, FilterResolved, FilterOpen.Next())
	assert.Equal(t, FilterAll, FilterResolved.Next())
	assert.Equal(t, FilterOpen, FilterAll.Next())
}

func TestState_Snapshot_is_isolated(t *testing.T) {
	st := NewState(Tree{SandboxID: "sb", User: &User{ID: "u"}})
	st.Update(func(tr *Tree) {
		tr.Comments.Put("sb", &Comment{ID: "a", Content: "before"})
		tr.Positions = &Positions{Dialog: &Rect{Left: 1}}
	})

	snap := st.Snapshot()
	snap.Comments["sb"]["a"].Content = "after"
	snap.Positions.Dialog.Left = 9

	st.View(func(tr *Tree) {
		assert.Equal(t, "before", tr.Comments["sb"]["a"].Content)
		assert.Equal(t, 1, tr.Positions.Dialog.Left)
		assert.Equal(t, FilterOpen, tr.SelectedFilter)
	})
}
