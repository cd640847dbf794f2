package remarks

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/eventbus"
	"github.com/colonyops/remarks/internal/core/eventbus/testbus"
)

var clickAt = comment.Rect{Left: 12, Top: 7, Right: 13, Bottom: 8}

func codeThread(id, path string) *comment.Comment {
	c := thread(id)
	c.References = []comment.Reference{{
		ID:       "ref-" + id,
		Type:     comment.ReferenceCode,
		Metadata: comment.CodeReference{Anchor: 0, Head: 4, Code: "func", Path: path},
		Resource: path,
	}}
	return c
}

func TestOnCommentClick_EmptyStartsDraft(t *testing.T) {
	h := newHarness(t)

	h.svc.OnCommentClick(context.Background(), nil, clickAt)

	tree := h.tree()
	assert.Equal(t, comment.OptimisticCommentID, tree.CurrentCommentID)
	_, ok := tree.Comments.Get(testSandbox, comment.OptimisticCommentID)
	assert.True(t, ok)
}

func TestOnCommentClick_SingleOpens(t *testing.T) {
	t.Run("code reference", func(t *testing.T) {
		h := newHarness(t, codeThread("c1", "src/main.go"))

		h.svc.OnCommentClick(context.Background(), []string{"c1"}, clickAt)

		tree := h.tree()
		assert.Equal(t, "c1", tree.CurrentCommentID)
		require.NotNil(t, tree.Positions)
		assert.Equal(t, clickAt, tree.Positions.Trigger)
		require.NotNil(t, tree.Positions.Dialog)
		assert.Equal(t, h.boundary.rect, *tree.Positions.Dialog)
		assert.Equal(t, []string{"src/main.go"}, h.editor.opened)

		require.Len(t, h.boundary.calls, 1)
		require.NotNil(t, h.boundary.calls[0])
		assert.Equal(t, "ref-c1", h.boundary.calls[0].ID)
	})

	t.Run("no reference", func(t *testing.T) {
		h := newHarness(t, thread("c1"))

		h.svc.OnCommentClick(context.Background(), []string{"c1"}, clickAt)

		tree := h.tree()
		assert.Equal(t, "c1", tree.CurrentCommentID)
		require.NotNil(t, tree.Positions)
		assert.Equal(t, clickAt, tree.Positions.Trigger)
		assert.Nil(t, tree.Positions.Dialog)
		assert.Empty(t, h.editor.opened)
		assert.Empty(t, h.boundary.calls)
	})
}

func TestOnCommentClick_ManyShowsSelector(t *testing.T) {
	h := newHarness(t, thread("c1"), thread("c2"), thread("c3"))
	ids := []string{"c1", "c2", "c3"}

	h.svc.OnCommentClick(context.Background(), ids, clickAt)
	ids[0] = "mutated"

	tree := h.tree()
	assert.False(t, tree.HasCurrent())
	require.NotNil(t, tree.MultiSelector)
	assert.Equal(t, comment.MultiSelector{IDs: []string{"c1", "c2", "c3"}, X: 12, Y: 7}, *tree.MultiSelector)
	assert.Empty(t, h.api.threadCalls)
}

func TestOnCommentClick_ActiveClosesIt(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{name: "only the active comment", ids: []string{"c1"}},
		{name: "active among several", ids: []string{"c2", "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, thread("c1"), thread("c2"))
			h.svc.SelectComment(context.Background(), "c1", clickAt)
			require.Equal(t, "c1", h.tree().CurrentCommentID)

			h.svc.OnCommentClick(context.Background(), tt.ids, clickAt)

			tree := h.tree()
			assert.False(t, tree.HasCurrent())
			assert.Nil(t, tree.Positions)
			assert.Nil(t, tree.MultiSelector)
		})
	}
}

func TestSelectComment_ClearsSelector(t *testing.T) {
	h := newHarness(t, thread("c1"), thread("c2"))
	h.svc.OnCommentClick(context.Background(), []string{"c1", "c2"}, clickAt)
	require.NotNil(t, h.tree().MultiSelector)

	h.svc.SelectComment(context.Background(), "c2", clickAt)

	tree := h.tree()
	assert.Nil(t, tree.MultiSelector)
	assert.Equal(t, "c2", tree.CurrentCommentID)
}

func TestSelectComment_FetchesRepliesInBackground(t *testing.T) {
	h := newHarness(t, thread("p"))
	h.api.threads = map[string]comment.Thread{
		"p": {Comment: *thread("p", "r1"), Replies: []comment.Comment{*reply("r1", "p")}},
	}

	h.svc.SelectComment(context.Background(), "p", clickAt)

	_, ok := h.get("r1")
	assert.True(t, ok)
	assert.Equal(t, []string{"p"}, h.api.threadCalls)
}

func TestSelectComment_FetchOutlivesCallerContext(t *testing.T) {
	h := newHarness(t, thread("p"))
	ctx, cancel := context.WithCancel(context.Background())

	h.svc.SelectComment(ctx, "p", clickAt)
	cancel()
	h.svc.Wait()

	assert.Equal(t, []string{"p"}, h.api.threadCalls)
	assert.Empty(t, h.notifier.Errors())
}

func TestSelectComment_DiscardsStaleDraft(t *testing.T) {
	h := newHarness(t, thread("c1"))
	h.svc.CreateComment(context.Background())
	require.Equal(t, comment.OptimisticCommentID, h.tree().CurrentCommentID)

	h.svc.SelectComment(context.Background(), "c1", clickAt)

	tree := h.tree()
	assert.Equal(t, "c1", tree.CurrentCommentID)
	_, ok := tree.Comments.Get(testSandbox, comment.OptimisticCommentID)
	assert.False(t, ok)
}

func TestSelectComment_DraftIsNotFetched(t *testing.T) {
	h := newHarness(t)
	h.svc.CreateComment(context.Background())

	h.svc.SelectComment(context.Background(), comment.OptimisticCommentID, clickAt)

	h.svc.Wait()
	assert.Empty(t, h.api.threadCalls)
	_, ok := h.get(comment.OptimisticCommentID)
	assert.True(t, ok)
}

func TestSelectComment_NavigationFailure(t *testing.T) {
	h := newHarness(t, codeThread("c1", "src/gone.go"))
	h.editor.selectErr = errOffline

	h.svc.SelectComment(context.Background(), "c1", clickAt)

	tree := h.tree()
	assert.False(t, tree.HasCurrent())
	assert.Nil(t, tree.Positions)
	assert.Empty(t, h.boundary.calls)
	assert.Equal(t, []string{MsgOpenFailed}, h.notifier.Errors())
}

func TestSelectComment_PublishesOpened(t *testing.T) {
	tb := testbus.New(t)
	h := newHarness(t, thread("c1"))
	h.svc = NewCommentService(h.svc.State(), h.svc.fx, tb.EventBus, zerolog.Nop())

	h.svc.SelectComment(context.Background(), "c1", clickAt)
	h.svc.Wait()

	tb.AssertPublished(t, eventbus.EventCommentOpened)
	tb.AssertPublished(t, eventbus.EventCommentThreadLoaded)
}

func TestCloseComment(t *testing.T) {
	t.Run("draft is discarded", func(t *testing.T) {
		h := newHarness(t)
		h.svc.CreateComment(context.Background())

		h.svc.CloseComment()

		tree := h.tree()
		assert.False(t, tree.HasCurrent())
		assert.Nil(t, tree.Positions)
		assert.Empty(t, tree.Comments.Sandbox(testSandbox))
	})

	t.Run("saved comment is kept", func(t *testing.T) {
		h := newHarness(t, thread("c1"))
		h.svc.SelectComment(context.Background(), "c1", clickAt)

		h.svc.CloseComment()

		tree := h.tree()
		assert.False(t, tree.HasCurrent())
		_, ok := tree.Comments.Get(testSandbox, "c1")
		assert.True(t, ok)
	})

	t.Run("nothing open publishes nothing", func(t *testing.T) {
		tb := testbus.New(t)
		h := newHarness(t)
		h.svc = NewCommentService(h.svc.State(), h.svc.fx, tb.EventBus, zerolog.Nop())

		h.svc.CloseComment()

		tb.AssertNotPublished(t, eventbus.EventCommentClosed)
	})
}

func TestDismissMultiSelector(t *testing.T) {
	h := newHarness(t, thread("c1"), thread("c2"))
	h.svc.OnCommentClick(context.Background(), []string{"c1", "c2"}, clickAt)

	h.svc.DismissMultiSelector()

	assert.Nil(t, h.tree().MultiSelector)
}

func TestSelectCommentsFilter(t *testing.T) {
	h := newHarness(t)

	h.svc.SelectCommentsFilter(comment.FilterResolved)

	assert.Equal(t, comment.FilterResolved, h.tree().SelectedFilter)
}
